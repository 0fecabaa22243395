package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/berburumobil/listing-scraper/internal/browser"
	"github.com/berburumobil/listing-scraper/internal/models"
)

// settleDelay gives client-side rendering time to populate the DOM after
// the navigation commit.
const settleDelay = 3 * time.Second

// Renderer produces a listing from a script-rendered page. It is an
// interface so the orchestrator can be tested without a browser.
type Renderer interface {
	RenderAndExtract(ctx context.Context, url string, source models.Source) (*models.Listing, error)
}

// BrowserRenderer is the production Renderer: it launches an isolated
// headless browser per invocation, serializes the live DOM after a settle
// wait, and runs the same tiered extraction used for static HTML.
type BrowserRenderer struct {
	opts   *browser.Options
	logger *slog.Logger
}

func NewBrowserRenderer(opts *browser.Options, logger *slog.Logger) *BrowserRenderer {
	if opts == nil {
		opts = browser.DefaultOptions()
	}
	return &BrowserRenderer{
		opts:   opts,
		logger: logger.With("component", "renderer"),
	}
}

func (r *BrowserRenderer) RenderAndExtract(ctx context.Context, url string, source models.Source) (*models.Listing, error) {
	session, err := browser.NewSession(r.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	page, err := session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	r.logger.Info("rendering page", "url", url, "source", source)

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(session.Timeout().Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(settleDelay):
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered content: %w", err)
	}

	return ExtractListing(content, source)
}
