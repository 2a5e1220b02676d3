package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/khrees2412/prospector/internal/app"
	"github.com/khrees2412/prospector/internal/config"
)

const (
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	pageLoadTimeout = 30 * time.Second
	maxBodyBytes    = 5 << 20
	maxContentChars = 30000
)

// Posting is a job posting captured from a web page
type Posting struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	RoleName    string `json:"role_name"`
	Content     string `json:"content"`
}

// Fetcher downloads job postings and turns them into Markdown text
type Fetcher struct {
	httpClient *http.Client
	render     bool
	timeout    time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. With cfg.Render set pages are loaded in headless Chrome.
func NewFetcher(cfg config.ScraperConfig, httpClient *http.Client, logger *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pageLoadTimeout
	}
	return &Fetcher{httpClient: httpClient, render: cfg.Render, timeout: timeout, logger: logger}
}

// Fetch downloads rawURL and extracts the posting text, title, company and role
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Posting, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid posting url %q: %w", rawURL, app.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var html string
	if f.render {
		html, err = f.fetchRendered(ctx, u.String())
	} else {
		html, err = f.fetchPlain(ctx, u.String())
	}
	if err != nil {
		return nil, err
	}

	posting, err := parsePosting(u, html)
	if err != nil {
		return nil, err
	}
	f.logger.DebugContext(ctx, "posting fetched",
		slog.String("url", posting.URL),
		slog.String("company", posting.CompanyName),
		slog.Int("content_chars", len(posting.Content)),
		slog.Bool("rendered", f.render))
	return posting, nil
}

func (f *Fetcher) fetchPlain(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	return string(body), nil
}

func (f *Fetcher) fetchRendered(ctx context.Context, rawURL string) (string, error) {
	browserCtx, cancel := createBrowserContext(ctx, f.logger)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second), // let client-side rendering settle
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", rawURL, err)
	}
	return html, nil
}

// createBrowserContext creates a new browser context with appropriate options
func createBrowserContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel2 := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if strings.Contains(msg, "could not unmarshal event") ||
			strings.Contains(msg, "unknown PrivateNetworkRequestPolicy") ||
			strings.Contains(msg, "unknown ClientNavigationReason") {
			return
		}
		logger.Debug("chromedp", slog.String("msg", msg))
	}))

	return ctx, func() {
		cancel2()
		cancel()
	}
}

var noiseSelectors = []string{
	"script", "style", "noscript", "iframe", "svg", "form",
	"header", "footer", "nav", "aside",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}

var contentSelectors = []string{
	"#content .job-post", "#content", ".posting-page", ".job-description", "[class*=description]",
	"article", "main",
}

func parsePosting(u *url.URL, html string) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	siteName := strings.TrimSpace(doc.Find("meta[property='og:site_name']").AttrOr("content", ""))

	doc.Find(strings.Join(noiseSelectors, ", ")).Remove()

	var main *goquery.Selection
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			main = s
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	content, err := toMarkdown(main)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("no posting text found at %s: %w", u, app.ErrInvalidArgument)
	}

	company := siteName
	if company == "" {
		company = CompanyFromURL(u)
	}

	return &Posting{
		URL:         u.String(),
		Title:       title,
		CompanyName: company,
		RoleName:    roleFromTitle(title, company),
		Content:     content,
	}, nil
}

func toMarkdown(sel *goquery.Selection) (string, error) {
	fragment, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		// fall back to plain text when the converter gives up
		md = sel.Text()
	}
	md = strings.TrimSpace(md)
	if r := []rune(md); len(r) > maxContentChars {
		md = string(r[:maxContentChars]) + "..."
	}
	return md, nil
}

// CompanyFromURL guesses the hiring company from an ATS or company URL
func CompanyFromURL(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var slug string
	switch {
	case strings.HasSuffix(host, "greenhouse.io"), strings.HasSuffix(host, "lever.co"),
		strings.HasSuffix(host, "ashbyhq.com"), strings.HasSuffix(host, "workable.com"):
		slug = segments[0]
	default:
		labels := strings.Split(host, ".")
		for len(labels) > 2 && isGenericLabel(labels[0]) {
			labels = labels[1:]
		}
		if len(labels) >= 2 {
			slug = labels[len(labels)-2]
		} else {
			slug = labels[0]
		}
	}
	if slug == "" {
		return ""
	}
	return titleCase(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
}

func isGenericLabel(label string) bool {
	switch label {
	case "jobs", "careers", "boards", "job-boards", "apply", "hire":
		return true
	}
	return false
}

// roleFromTitle pulls the role out of titles such as
// "Job Application for Backend Engineer at Acme" or "Acme - Backend Engineer"
func roleFromTitle(title, company string) string {
	t := strings.TrimSpace(title)
	t = strings.TrimPrefix(t, "Job Application for ")
	if i := strings.LastIndex(t, " at "); i > 0 {
		return strings.TrimSpace(t[:i])
	}
	for _, sep := range []string{" - ", " | ", " – "} {
		parts := strings.Split(t, sep)
		if len(parts) < 2 {
			continue
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" && !strings.EqualFold(p, company) {
				return p
			}
		}
	}
	return t
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
