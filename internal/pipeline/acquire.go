package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/berburumobil/listing-scraper/internal/models"
)

const (
	batchSize       = 5
	perImageTimeout = 8 * time.Second
	interBatchDelay = 200 * time.Millisecond
	maxImageWidth   = 600
	jpegQuality     = 75
	maxImageBytes   = 20 << 20
)

// Acquirer downloads listing images in small parallel batches and converts
// each into a bounded-size base64 JPEG. Individual failures are logged and
// skipped; the pipeline itself never fails.
type Acquirer struct {
	client *http.Client
	logger *slog.Logger
}

func NewAcquirer(logger *slog.Logger) *Acquirer {
	return &Acquirer{
		client: &http.Client{Timeout: perImageTimeout},
		logger: logger.With("component", "image-pipeline"),
	}
}

// Acquire processes urls in batches of five, preserving input order in the
// result. Images that fail to download or decode are dropped. The returned
// slice contains only successfully processed images.
func (a *Acquirer) Acquire(ctx context.Context, urls []string) []models.ProcessedImage {
	if len(urls) == 0 {
		return nil
	}

	results := make([]models.ProcessedImage, len(urls))

	for start := 0; start < len(urls); start += batchSize {
		end := start + batchSize
		if end > len(urls) {
			end = len(urls)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				img, err := a.acquireOne(gctx, urls[i])
				if err != nil {
					a.logger.Warn("image skipped", "url", urls[i], "error", err)
					return nil
				}
				results[i] = img
				return nil
			})
		}
		g.Wait()

		if end < len(urls) {
			select {
			case <-ctx.Done():
				return compact(results)
			case <-time.After(interBatchDelay):
			}
		}
	}

	return compact(results)
}

func (a *Acquirer) acquireOne(ctx context.Context, url string) (models.ProcessedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, perImageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return process(raw)
}

// process decodes, downscales to at most maxImageWidth wide, and re-encodes
// as base64 JPEG. Images already narrower than the cap are not upscaled.
func process(raw []byte) (models.ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return models.ProcessedImage(base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

func compact(results []models.ProcessedImage) []models.ProcessedImage {
	out := make([]models.ProcessedImage, 0, len(results))
	for _, r := range results {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
