package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultRenderTimeout bounds one headless browser render.
const DefaultRenderTimeout = 45 * time.Second

// formControls matches the controls a scan can fill.
const formControls = "input:not([type=hidden]):not([type=submit]):not([type=button]), select, textarea"

// NeedsRendering reports whether static HTML has no fillable controls,
// indicating the form is built client-side.
func NeedsRendering(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	return doc.Find(formControls).Length() == 0
}

// WithBrowser renders a page in a headless browser and returns the rendered
// HTML once at least one form control is present.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	logger.Debug("starting headless browser", zap.String("url", url))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.WaitVisible("input, select, textarea", chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	logger.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Page fetches a URL over HTTP and falls back to the headless browser when
// the static HTML has no form controls.
func Page(ctx context.Context, url string, opts *Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	result, err := URL(ctx, url, opts)
	if err != nil {
		return result, err
	}
	if !NeedsRendering(result.HTML) {
		return result, nil
	}

	logger.Info("no form controls in static HTML, rendering", zap.String("url", url))
	html, err := WithBrowser(ctx, url, 0, logger)
	if err != nil {
		return result, &Error{URL: url, Message: "render failed", Cause: err}
	}
	result.HTML = html
	result.Rendered = true
	return result, nil
}
