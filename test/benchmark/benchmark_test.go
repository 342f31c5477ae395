package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/mocks"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/service"
	"github.com/submission-ticker-api/internal/ticker"
	"github.com/submission-ticker-api/internal/validation"
)

// seedApproved fills a mock store with n approved announcements
func seedApproved(repo *mocks.MockSubmissionRepository, n int) {
	base := time.Now().UTC()
	for i := 0; i < n; i++ {
		at := base.Add(-time.Duration(i) * time.Minute)
		repo.Put(&models.Submission{
			ID:          uuid.New(),
			Content:     fmt.Sprintf("Announcement number %d", i),
			IsActive:    true,
			Status:      models.StatusApproved,
			PublishedAt: &at,
			CreatedAt:   at,
			UpdatedAt:   at,
		})
	}
}

// BenchmarkListApproved benchmarks the ticker feed read over 1000 rows
func BenchmarkListApproved(b *testing.B) {
	repos, announcements, _ := mocks.NewMockRepositories()
	seedApproved(announcements, 1000)
	services := service.NewServices(repos, zerolog.Nop())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := services.Submissions.List(context.Background(), models.ResourceAnnouncements, "approved"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkListApprovedCached benchmarks the same read served from the feed cache
func BenchmarkListApprovedCached(b *testing.B) {
	repos, announcements, _ := mocks.NewMockRepositories()
	seedApproved(announcements, 1000)
	services := service.NewServices(repos, zerolog.Nop(), service.WithFeedCache(mocks.NewMockFeedCache()))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := services.Submissions.List(context.Background(), models.ResourceAnnouncements, "approved"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkValidation benchmarks testimonial payload validation
func BenchmarkValidation(b *testing.B) {
	rating := 5
	email := "ada@example.com"
	photo := "https://example.com/ada.png"
	req := &models.CreateRequest{
		TestimonialContent: "Wonderful people and a great product",
		FullName:           "Ada Lovelace",
		Email:              &email,
		Rating:             &rating,
		PhotoURL:           &photo,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		validation.ValidateCreate(models.ResourceTestimonials, req)
	}
}

// BenchmarkBuildMarkup benchmarks ticker markup for a full feed
func BenchmarkBuildMarkup(b *testing.B) {
	items := make([]ticker.Item, models.TickerLimit)
	for i := range items {
		items[i] = ticker.Item{ID: uuid.NewString(), Content: strings.Repeat("news ", 20)}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ticker.Build(items)
	}
}

// BenchmarkInjectPage benchmarks parse, insert and render of a typical page
func BenchmarkInjectPage(b *testing.B) {
	var page bytes.Buffer
	page.WriteString("<html><head><title>site</title></head><body><header><nav>menu</nav></header><main>")
	for i := 0; i < 200; i++ {
		page.WriteString("<section><h2>Heading</h2><p>Paragraph text for the page body.</p></section>")
	}
	page.WriteString("</main></body></html>")
	data := page.Bytes()
	items := []ticker.Item{{ID: "1", Content: "Office closed Monday"}, {ID: "2", Content: "New menu"}}

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		doc, err := ticker.ParseDocument(bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		ticker.NewEngine(doc, items, ticker.DefaultOptions(), zerolog.Nop()).Insert(true)
		if err := doc.Render(&bytes.Buffer{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkModerationParallel benchmarks concurrent approvals against one store
func BenchmarkModerationParallel(b *testing.B) {
	repos, _, _ := mocks.NewMockRepositories()
	services := service.NewServices(repos, zerolog.Nop())

	ids := make([]string, 64)
	for i := range ids {
		sub, err := services.Submissions.Create(context.Background(), models.ResourceAnnouncements, &models.CreateRequest{Content: "item"})
		if err != nil {
			b.Fatal(err)
		}
		ids[i] = sub.ID.String()
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			services.Moderation.Approve(context.Background(), models.ResourceAnnouncements, ids[i%len(ids)])
			i++
		}
	})
}
