package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berburumobil/listing-scraper/internal/analysis"
	"github.com/berburumobil/listing-scraper/internal/archive"
	"github.com/berburumobil/listing-scraper/internal/pipeline"
	"github.com/berburumobil/listing-scraper/internal/scraper"
)

func testHandlers() *Handlers {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scraperSvc := scraper.NewService(scraper.NewFetcher(time.Second), nil, logger)
	return NewHandlers(
		scraperSvc,
		pipeline.NewAcquirer(logger),
		analysis.NewService(nil, logger),
		nil,
		archive.NewSink(nil, logger),
		nil,
		logger,
	)
}

func postAnalyze(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	testHandlers().AnalyzeListing(rec, req)
	return rec
}

func TestAnalyzeRejectsInvalidBody(t *testing.T) {
	rec := postAnalyze(t, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRejectsMissingURL(t *testing.T) {
	rec := postAnalyze(t, `{"url": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "url")
}

func TestAnalyzeRejectsOverlongURL(t *testing.T) {
	long := "https://www.olx.co.id/item/" + strings.Repeat("a", 1100)
	rec := postAnalyze(t, `{"url": "`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRejectsUnsupportedHost(t *testing.T) {
	rec := postAnalyze(t, `{"url": "https://www.facebook.com/marketplace/item/1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "host_not_allowed", resp["reason"])
	assert.NotEmpty(t, resp["error"])
}

func TestAnalyzeRejectsNonDetailPage(t *testing.T) {
	rec := postAnalyze(t, `{"url": "https://www.olx.co.id/mobil-bekas_c198"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_detail_page", resp["reason"])
}

func TestStoredImagesWithoutDatabase(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stored-images", nil)
	rec := httptest.NewRecorder()
	testHandlers().GetStoredImages(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	testHandlers().HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
