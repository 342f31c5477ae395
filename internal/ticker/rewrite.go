package ticker

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// ItemSource supplies the items injected into each page
type ItemSource interface {
	Items(ctx context.Context) ([]Item, error)
}

// Rewriter injects the ticker into HTML responses of the wrapped handler.
// Other responses, and pages that fail to parse, pass through untouched.
// A served page is complete, so insertion is a single pass with fallback and
// never polls.
type Rewriter struct {
	next   http.Handler
	source ItemSource
	log    zerolog.Logger
}

// NewRewriter creates a Rewriter around next that reads items from source
func NewRewriter(next http.Handler, source ItemSource, log zerolog.Logger) *Rewriter {
	return &Rewriter{
		next:   next,
		source: source,
		log:    log.With().Str("component", "ticker_rewriter").Logger(),
	}
}

func (rw *Rewriter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	buf := &bufferedResponse{header: make(http.Header), status: http.StatusOK}
	rw.next.ServeHTTP(buf, r)

	body := buf.body.Bytes()
	if r.Method != http.MethodHead && rw.shouldRewrite(buf) {
		if rewritten, ok := rw.rewrite(r.Context(), body); ok {
			body = rewritten
			// the upstream validator describes the original bytes
			buf.header.Del("ETag")
		}
	}

	for k, v := range buf.header {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(buf.status)
	if r.Method != http.MethodHead {
		w.Write(body)
	}
}

func (rw *Rewriter) shouldRewrite(buf *bufferedResponse) bool {
	if buf.status != http.StatusOK || buf.header.Get("Content-Encoding") != "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(buf.header.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

func (rw *Rewriter) rewrite(ctx context.Context, page []byte) ([]byte, bool) {
	items, err := rw.source.Items(ctx)
	if err != nil {
		rw.log.Warn().Err(err).Msg("Feed unavailable, serving page unchanged")
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}

	doc, err := ParseDocument(bytes.NewReader(page))
	if err != nil {
		rw.log.Warn().Err(err).Msg("Failed to parse page")
		return nil, false
	}

	engine := NewEngine(doc, items, Options{}, rw.log)
	if !engine.Insert(true).Found() {
		return nil, false
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		rw.log.Warn().Err(err).Msg("Failed to render page")
		return nil, false
	}
	return out.Bytes(), true
}

// bufferedResponse holds a response until the rewriter has decided what to send
type bufferedResponse struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true
	b.status = status
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}
