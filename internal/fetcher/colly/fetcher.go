// Package collyfetcher retrieves page text directly over HTTP using the
// Colly collector, for deployments that bypass the hosted reader service.
package collyfetcher

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/partsignal/content-audit/internal/audit"
)

// DefaultContentCap bounds extracted page text, matching the reader
// service's cap so audits see comparable evidence either way.
const DefaultContentCap = 8000

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	// ContentCap bounds the extracted text length; 0 means DefaultContentCap.
	ContentCap int
}

// Fetcher implements audit.ContentFetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	if cfg.ContentCap <= 0 {
		cfg.ContentCap = DefaultContentCap
	}
	return &Fetcher{cfg: cfg, baseCollector: c}
}

// Fetch executes a single HTTP GET and reduces the response to bounded
// plain text.
func (f *Fetcher) Fetch(ctx context.Context, target string) (audit.Page, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, target, &fetchErr); err != nil {
		return audit.Page{}, err
	}
	if status >= 300 {
		return audit.Page{}, fmt.Errorf("fetch %s: status %d", target, status)
	}

	text, err := pageText(body)
	if err != nil {
		return audit.Page{}, fmt.Errorf("extract text from %s: %w", target, err)
	}
	return capPage(text, f.cfg.ContentCap), nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

// pageText strips markup and collapses the document body to a single run of
// whitespace-separated text.
func pageText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, svg, iframe").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		// Not an HTML document; treat the raw body as text.
		text = string(body)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

func capPage(text string, limit int) audit.Page {
	if len(text) <= limit {
		return audit.Page{Content: text}
	}
	return audit.Page{Content: text[:limit], Truncated: true}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
