package ticker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	items []Item
	err   error
	calls int
}

func (s *staticSource) Items(ctx context.Context) ([]Item, error) {
	s.calls++
	return s.items, s.err
}

func page(contentType, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write([]byte(body))
	})
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestRewriter_InjectsIntoHTML(t *testing.T) {
	source := &staticSource{items: sampleItems}
	rw := NewRewriter(page("text/html; charset=utf-8", `<html><body><header>site</header><p>x</p></body></html>`), source, zerolog.Nop())

	w := serve(rw)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Equal(t, 1, strings.Count(body, `id="`+MarkerID+`"`))
	assert.Less(t, strings.Index(body, "</header>"), strings.Index(body, MarkerID), "ticker should follow the header")
	assert.Equal(t, strconv.Itoa(len(body)), w.Header().Get("Content-Length"))
}

func TestRewriter_PassThrough(t *testing.T) {
	const htmlPage = `<html><body><nav>n</nav></body></html>`

	tests := []struct {
		name    string
		handler http.Handler
		source  *staticSource
		want    string
	}{
		{name: "json", handler: page("application/json", `{"ok":true}`), source: &staticSource{items: sampleItems}, want: `{"ok":true}`},
		{name: "feed error", handler: page("text/html", htmlPage), source: &staticSource{err: errors.New("down")}, want: htmlPage},
		{name: "empty feed", handler: page("text/html", htmlPage), source: &staticSource{}, want: htmlPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(NewRewriter(tt.handler, tt.source, zerolog.Nop()))
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRewriter_SkipsErrorsAndCompressedBodies(t *testing.T) {
	source := &staticSource{items: sampleItems}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<p>missing</p>"))
	})
	w := serve(NewRewriter(notFound, source, zerolog.Nop()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "<p>missing</p>", w.Body.String())

	gzipped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write([]byte{0x1f, 0x8b})
	})
	w = serve(NewRewriter(gzipped, source, zerolog.Nop()))
	assert.Equal(t, []byte{0x1f, 0x8b}, w.Body.Bytes())

	assert.Equal(t, 0, source.calls, "feed should only be read for rewritable pages")
}

func TestRewriter_HeadIsNotRewritten(t *testing.T) {
	source := &staticSource{items: sampleItems}
	const htmlPage = `<html><body><header>site</header></body></html>`
	rw := NewRewriter(page("text/html", htmlPage), source, zerolog.Nop())

	w := httptest.NewRecorder()
	rw.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, strconv.Itoa(len(htmlPage)), w.Header().Get("Content-Length"))
	assert.Equal(t, 0, source.calls, "HEAD must not read the feed")
}

func TestRewriter_DropsETagOnlyWhenRewritten(t *testing.T) {
	tagged := func(body string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("ETag", `"v1"`)
			page("text/html", body).ServeHTTP(w, r)
		})
	}

	w := serve(NewRewriter(tagged(`<html><body><header>h</header></body></html>`), &staticSource{items: sampleItems}, zerolog.Nop()))
	require.Contains(t, w.Body.String(), MarkerID)
	assert.Empty(t, w.Header().Get("ETag"))

	w = serve(NewRewriter(tagged(`<html><body><header>h</header></body></html>`), &staticSource{}, zerolog.Nop()))
	assert.NotContains(t, w.Body.String(), MarkerID)
	assert.Equal(t, `"v1"`, w.Header().Get("ETag"))
}
