package scraper

import (
	"context"
	"log/slog"

	"github.com/berburumobil/listing-scraper/internal/models"
	"github.com/berburumobil/listing-scraper/internal/normalize"
)

const degradedDescription = "Tidak dapat mengambil deskripsi. Silakan cek link langsung."

// Service orchestrates the two scraping engines. The static engine is
// always tried first; the rendering engine runs only when the static pass
// resolved neither title nor price. After classification succeeds the
// service never returns an error: an unreachable or unrecognizable page
// yields a degraded listing instead.
type Service struct {
	fetcher  *Fetcher
	renderer Renderer
	logger   *slog.Logger
}

func NewService(fetcher *Fetcher, renderer Renderer, logger *slog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		renderer: renderer,
		logger:   logger.With("component", "scraper"),
	}
}

// Scrape validates the URL, extracts the listing, and normalizes it.
// The only error it returns is *UnsupportedURLError from classification.
func (s *Service) Scrape(ctx context.Context, rawURL string) (*models.Listing, error) {
	source, err := ClassifyURL(rawURL)
	if err != nil {
		return nil, err
	}

	listing := s.staticScrape(ctx, rawURL, source)

	if listing.Unresolved() && s.renderer != nil {
		s.logger.Info("static scrape unresolved, falling back to rendering",
			"url", rawURL, "source", source)
		if rendered := s.renderScrape(ctx, rawURL, source); rendered != nil && !rendered.Unresolved() {
			listing = rendered
		}
	}

	if listing.Unresolved() {
		listing = s.degradedListing(rawURL)
		s.logger.Warn("scrape degraded, returning placeholder listing", "url", rawURL)
	}

	normalize.Listing(listing)
	s.logger.Info("scrape complete",
		"url", rawURL,
		"source", source,
		"title", listing.Title,
		"images", len(listing.Images))
	return listing, nil
}

func (s *Service) staticScrape(ctx context.Context, rawURL string, source models.Source) *models.Listing {
	html, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.logger.Warn("static fetch failed", "url", rawURL, "error", err)
		return models.NewListing()
	}

	listing, err := ExtractListing(html, source)
	if err != nil {
		s.logger.Warn("static extraction failed", "url", rawURL, "error", err)
		return models.NewListing()
	}
	return listing
}

func (s *Service) renderScrape(ctx context.Context, rawURL string, source models.Source) *models.Listing {
	listing, err := s.renderer.RenderAndExtract(ctx, rawURL, source)
	if err != nil {
		s.logger.Warn("render fallback failed", "url", rawURL, "error", err)
		return nil
	}
	return listing
}

// degradedListing synthesizes a minimal listing from the URL itself so the
// caller always receives something presentable.
func (s *Service) degradedListing(rawURL string) *models.Listing {
	listing := models.NewListing()
	if title := titleFromSlug(rawURL); title != "" {
		listing.Title = title
	}
	listing.Price = models.ContactSeller
	listing.Description = degradedDescription
	return listing
}
