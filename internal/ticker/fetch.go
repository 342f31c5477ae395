package ticker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const maxFeedBytes = 1 << 20

// feedItem accepts both announcement and testimonial payloads
type feedItem struct {
	ID                 string `json:"id"`
	Content            string `json:"content"`
	TestimonialContent string `json:"testimonialContent"`
}

// Fetcher reads the approved list from the submission API
type Fetcher struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewFetcher creates a Fetcher for the given feed URL
func NewFetcher(url string, timeout time.Duration, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "ticker_fetcher").Logger(),
	}
}

// Fetch returns the items to show. An empty result means the ticker stays hidden.
func (f *Fetcher) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	items, err := ParseFeed(body)
	if err != nil {
		return nil, err
	}

	f.log.Debug().Int("items", len(items)).Str("url", f.url).Msg("Feed fetched")
	return items, nil
}

// Items implements ItemSource
func (f *Fetcher) Items(ctx context.Context) ([]Item, error) {
	return f.Fetch(ctx)
}

// ParseFeed decodes either a bare JSON array of items or the API's success
// envelope, whose list sits under the resource name.
func ParseFeed(body []byte) ([]Item, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var raw []feedItem
	if body[0] == '[' {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode feed: %w", err)
		}
		return toItems(raw), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	for _, key := range []string{"announcements", "testimonials", "items", "data"} {
		list, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(list, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode feed %q: %w", key, err)
		}
		return toItems(raw), nil
	}
	return nil, fmt.Errorf("feed has no item list")
}

func toItems(raw []feedItem) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		content := r.Content
		if strings.TrimSpace(content) == "" {
			content = r.TestimonialContent
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		items = append(items, Item{ID: r.ID, Content: content})
	}
	return items
}
