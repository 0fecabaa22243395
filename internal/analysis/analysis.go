package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/berburumobil/listing-scraper/internal/models"
)

// Result is the inspection-oriented analysis of a listing. Textual fields
// are in Indonesian to match the rest of the product surface.
type Result struct {
	Summary        string   `json:"summary"`
	ConditionScore int      `json:"conditionScore"`
	Confidence     int      `json:"confidence"`
	RiskLevel      string   `json:"riskLevel"`
	Concerns       []string `json:"concerns"`
	Recommendation string   `json:"recommendation"`
	ImagesAnalyzed int      `json:"imagesAnalyzed"`
}

const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// ConfidenceForImageCount maps the number of analyzed photos to the maximum
// confidence the analysis may claim. More photos allow a stronger claim.
func ConfidenceForImageCount(n int) int {
	switch {
	case n >= 12:
		return 98
	case n >= 10:
		return 95
	case n >= 6:
		return 90
	case n >= 4:
		return 85
	case n >= 2:
		return 75
	case n >= 1:
		return 60
	default:
		return 40
	}
}

// ScoreBoundsForImageCount bounds the condition score so a sparse gallery
// cannot produce an extreme verdict in either direction.
func ScoreBoundsForImageCount(n int) (min, max int) {
	switch {
	case n >= 12:
		return 35, 98
	case n >= 10:
		return 30, 95
	case n >= 6:
		return 30, 90
	case n >= 4:
		return 25, 85
	case n >= 2:
		return 20, 80
	default:
		return 15, 70
	}
}

// Classifier produces a raw analysis for a listing and its processed
// photos. Implementations may call an external model service.
type Classifier interface {
	Classify(ctx context.Context, listing *models.Listing, images []models.ProcessedImage) (*Result, error)
}

// HTTPClassifier posts the listing and images to an analysis endpoint and
// decodes the structured result.
type HTTPClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPClassifier(endpoint, apiKey string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Listing *models.Listing         `json:"listing"`
	Images  []models.ProcessedImage `json:"images"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, listing *models.Listing, images []models.ProcessedImage) (*Result, error) {
	body, err := json.Marshal(classifyRequest{Listing: listing, Images: images})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classify endpoint returned %d: %s", resp.StatusCode, payload)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}
	return &result, nil
}

// Service wraps a Classifier and enforces the photo-count policy on its
// output. A classifier failure degrades to a generic manual-check result
// rather than failing the caller.
type Service struct {
	classifier Classifier
	logger     *slog.Logger
}

func NewService(classifier Classifier, logger *slog.Logger) *Service {
	return &Service{
		classifier: classifier,
		logger:     logger.With("component", "analysis"),
	}
}

func (s *Service) Analyze(ctx context.Context, listing *models.Listing, images []models.ProcessedImage) *Result {
	if s.classifier == nil {
		return Fallback(listing.Title, len(images))
	}

	result, err := s.classifier.Classify(ctx, listing, images)
	if err != nil {
		s.logger.Warn("classification failed, using fallback", "error", err)
		return Fallback(listing.Title, len(images))
	}

	clamp(result, len(images))
	return result
}

// clamp enforces the confidence ceiling and score bounds for the actual
// number of photos analyzed, whatever the classifier claimed.
func clamp(r *Result, imageCount int) {
	ceiling := ConfidenceForImageCount(imageCount)
	if r.Confidence > ceiling {
		r.Confidence = ceiling
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	}

	min, max := ScoreBoundsForImageCount(imageCount)
	if r.ConditionScore < min {
		r.ConditionScore = min
	}
	if r.ConditionScore > max {
		r.ConditionScore = max
	}

	switch r.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		r.RiskLevel = RiskMedium
	}
	r.ImagesAnalyzed = imageCount
}

// Fallback is the analysis returned when no classifier verdict is
// available. It always recommends a physical inspection.
func Fallback(title string, imageCount int) *Result {
	if title == "" || title == models.NotFound {
		title = "mobil ini"
	}
	min, _ := ScoreBoundsForImageCount(imageCount)
	return &Result{
		Summary:        fmt.Sprintf("Analisis otomatis untuk %s tidak tersedia saat ini.", title),
		ConditionScore: min,
		Confidence:     ConfidenceForImageCount(imageCount) / 2,
		RiskLevel:      RiskHigh,
		Concerns: []string{
			"Analisis otomatis gagal, kondisi belum terverifikasi",
			"Harap lakukan inspeksi langsung sebelum transaksi",
		},
		Recommendation: "Sangat disarankan melakukan inspeksi fisik oleh mekanik terpercaya.",
		ImagesAnalyzed: imageCount,
	}
}
