package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/berburumobil/listing-scraper/internal/analysis"
	"github.com/berburumobil/listing-scraper/internal/archive"
	"github.com/berburumobil/listing-scraper/internal/cache"
	"github.com/berburumobil/listing-scraper/internal/database"
	"github.com/berburumobil/listing-scraper/internal/models"
	"github.com/berburumobil/listing-scraper/internal/pipeline"
	"github.com/berburumobil/listing-scraper/internal/scraper"
)

const (
	maxURLLength     = 1000
	analyzeImageCap  = 15
	saveTimeout      = 10 * time.Second
	defaultBucketCap = 50
)

type Handlers struct {
	scraper  *scraper.Service
	acquirer *pipeline.Acquirer
	analyzer *analysis.Service
	cache    *cache.AnalysisCache
	sink     *archive.Sink
	db       *database.DB
	logger   *slog.Logger
}

func NewHandlers(
	scraperSvc *scraper.Service,
	acquirer *pipeline.Acquirer,
	analyzer *analysis.Service,
	analysisCache *cache.AnalysisCache,
	sink *archive.Sink,
	db *database.DB,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		scraper:  scraperSvc,
		acquirer: acquirer,
		analyzer: analyzer,
		cache:    analysisCache,
		sink:     sink,
		db:       db,
		logger:   logger.With("component", "api"),
	}
}

// AnalyzeRequest carries the listing URL to analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeResponse bundles the scraped listing with its analysis.
type AnalyzeResponse struct {
	Listing   *models.Listing  `json:"listing"`
	Analysis  *analysis.Result `json:"analysis"`
	BucketKey string           `json:"bucketKey"`
	Cached    bool             `json:"cached"`
}

// AnalyzeListing handles POST /api/v1/analyze: validate the URL, scrape
// the listing, process its photos, analyze, archive, and respond.
func (h *Handlers) AnalyzeListing(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if len(url) > maxURLLength {
		h.respondError(w, http.StatusBadRequest, "url is too long")
		return
	}

	if payload := h.cache.Get(r.Context(), url); payload != nil {
		h.logger.Info("serving cached analysis", "url", url)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
		return
	}

	listing, err := h.scraper.Scrape(r.Context(), url)
	if err != nil {
		var unsupported *scraper.UnsupportedURLError
		if errors.As(err, &unsupported) {
			h.respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  unsupported.Message,
				"reason": string(unsupported.Reason),
			})
			return
		}
		h.logger.Error("scrape failed", "url", url, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to process listing")
		return
	}

	imageURLs := listing.Images
	if len(imageURLs) > analyzeImageCap {
		imageURLs = imageURLs[:analyzeImageCap]
	}

	processed := h.acquirer.Acquire(r.Context(), imageURLs)
	result := h.analyzer.Analyze(r.Context(), listing, processed)

	bucketKey := archive.BucketKey(listing.Title)
	h.sink.Archive(listing.Images, bucketKey)

	resp := AnalyzeResponse{
		Listing:   listing,
		Analysis:  result,
		BucketKey: bucketKey,
	}
	h.respondJSON(w, http.StatusOK, resp)

	// Later hits on this URL come from the cache, so mark the stored copy.
	resp.Cached = true
	if payload, err := json.Marshal(resp); err == nil {
		h.cache.Set(r.Context(), url, payload)
	}
	h.saveAnalysis(url, bucketKey, listing.Title, result)
}

// saveAnalysis persists the result for later retrieval. Best effort; a
// database failure does not affect the response already sent.
func (h *Handlers) saveAnalysis(url, bucketKey, title string, result *analysis.Result) {
	if h.db == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("failed to marshal analysis for storage", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err = h.db.SaveAnalysis(ctx, &database.SavedAnalysis{
		ListingURL: url,
		BucketKey:  bucketKey,
		Title:      title,
		Result:     payload,
	})
	if err != nil {
		h.logger.Warn("failed to save analysis", "url", url, "error", err)
	}
}

// GetStoredImages handles GET /api/v1/stored-images. With ?bucketKey= it
// returns the archived URLs for that bucket; without it, a summary of the
// most recent buckets.
func (h *Handlers) GetStoredImages(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.respondError(w, http.StatusServiceUnavailable, "archive storage is not configured")
		return
	}

	if bucket := r.URL.Query().Get("bucketKey"); bucket != "" {
		images, err := h.db.ListByBucket(r.Context(), bucket)
		if err != nil {
			h.logger.Error("failed to list archived images", "bucket", bucket, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to list images")
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"bucketKey": bucket,
			"images":    images,
		})
		return
	}

	limit := defaultBucketCap
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	buckets, err := h.db.RecentBuckets(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list buckets", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list buckets")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"buckets": buckets})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
