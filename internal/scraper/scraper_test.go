package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingPage = `<!DOCTYPE html>
<html>
<head>
  <title>Job Application for Backend Engineer at Acme</title>
  <meta property="og:site_name" content="Acme Rockets">
  <script>var tracking = true;</script>
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <main>
    <h1>Backend Engineer</h1>
    <p>We build <strong>rockets</strong> in Go.</p>
    <ul><li>5 years of Go</li><li>PostgreSQL</li></ul>
  </main>
  <footer>Copyright Acme</footer>
</body>
</html>`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFetcher(config.ScraperConfig{Timeout: 5 * time.Second}, srv.Client(), nil), srv.URL
}

func TestFetchPosting(t *testing.T) {
	f, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(postingPage))
	})

	p, err := f.Fetch(context.Background(), base+"/jobs/1")
	require.NoError(t, err)

	assert.Equal(t, base+"/jobs/1", p.URL)
	assert.Equal(t, "Job Application for Backend Engineer at Acme", p.Title)
	assert.Equal(t, "Acme Rockets", p.CompanyName)
	assert.Equal(t, "Backend Engineer", p.RoleName)
	assert.Contains(t, p.Content, "# Backend Engineer")
	assert.Contains(t, p.Content, "**rockets**")
	assert.Contains(t, p.Content, "5 years of Go")
	assert.NotContains(t, p.Content, "tracking")
	assert.NotContains(t, p.Content, "Copyright")
	assert.NotContains(t, p.Content, "Home")
}

func TestFetchNon2xx(t *testing.T) {
	f, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := f.Fetch(context.Background(), base+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchRejectsBadURL(t *testing.T) {
	f := NewFetcher(config.ScraperConfig{}, nil, nil)
	for _, raw := range []string{"", "ftp://example.com/job", "not a url", "https://"} {
		_, err := f.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, app.ErrInvalidArgument, "url %q", raw)
	}
}

func TestFetchEmptyPage(t *testing.T) {
	f, base := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script>x()</script></body></html>`))
	})

	_, err := f.Fetch(context.Background(), base)
	assert.ErrorIs(t, err, app.ErrInvalidArgument)
}

func TestCompanyFromURL(t *testing.T) {
	tests := map[string]string{
		"https://boards.greenhouse.io/acme-rockets/jobs/123": "Acme Rockets",
		"https://job-boards.greenhouse.io/stripe/jobs/9":     "Stripe",
		"https://jobs.lever.co/netflix/abc-def":              "Netflix",
		"https://careers.example.com/openings/42":            "Example",
		"https://www.figma.com/careers/":                     "Figma",
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, CompanyFromURL(u), raw)
	}
}

func TestRoleFromTitle(t *testing.T) {
	assert.Equal(t, "Backend Engineer", roleFromTitle("Job Application for Backend Engineer at Acme", "Acme"))
	assert.Equal(t, "Senior SRE", roleFromTitle("Netflix - Senior SRE", "Netflix"))
	assert.Equal(t, "Data Engineer", roleFromTitle("Data Engineer | Figma", "Figma"))
	assert.Equal(t, "Staff Engineer", roleFromTitle("Staff Engineer", "Acme"))
}
