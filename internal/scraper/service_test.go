package scraper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berburumobil/listing-scraper/internal/models"
)

// stubTransport routes every request to a canned response, so the service
// can be exercised against the real marketplace hostnames without network.
type stubTransport struct {
	status int
	body   string
	err    error
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.err != nil {
		return nil, t.err
	}
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

type stubRenderer struct {
	listing *models.Listing
	err     error
	calls   int
}

func (r *stubRenderer) RenderAndExtract(ctx context.Context, url string, source models.Source) (*models.Listing, error) {
	r.calls++
	return r.listing, r.err
}

func newStubService(t *stubTransport, r Renderer) *Service {
	fetcher := &Fetcher{client: &http.Client{Transport: t}}
	return NewService(fetcher, r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const testOLXURL = "https://www.olx.co.id/item/toyota-avanza-2019-iid-123456"

func TestScrapeStaticSuccess(t *testing.T) {
	svc := newStubService(&stubTransport{status: 200, body: olxFixture}, &stubRenderer{})

	listing, err := svc.Scrape(context.Background(), testOLXURL)
	require.NoError(t, err)

	assert.Equal(t, "Toyota Avanza 1.3 G 2019", listing.Title)
	assert.Equal(t, "Rp 155.000.000", listing.Price)
	assert.Len(t, listing.Images, 4)
}

func TestScrapeRejectsUnsupportedURL(t *testing.T) {
	svc := newStubService(&stubTransport{status: 200, body: olxFixture}, nil)

	_, err := svc.Scrape(context.Background(), "https://www.facebook.com/marketplace/item/1")
	var unsupported *UnsupportedURLError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ReasonHostNotAllowed, unsupported.Reason)
}

func TestScrapeFallsBackToRenderer(t *testing.T) {
	rendered := models.NewListing()
	rendered.Title = "Toyota Avanza 1.3 G 2019"
	rendered.Price = "Rp 155.000.000"
	renderer := &stubRenderer{listing: rendered}

	// Static pass yields a page with no extractable fields.
	svc := newStubService(&stubTransport{status: 200, body: "<html><body>loading...</body></html>"}, renderer)

	listing, err := svc.Scrape(context.Background(), testOLXURL)
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, "Toyota Avanza 1.3 G 2019", listing.Title)
}

func TestScrapeDegradesInsteadOfFailing(t *testing.T) {
	tests := []struct {
		name      string
		transport *stubTransport
	}{
		{"server error", &stubTransport{status: 500, body: "internal error"}},
		{"transport failure", &stubTransport{err: errors.New("connection refused")}},
		{"unrecognizable content", &stubTransport{status: 200, body: "<html><body>bukan iklan</body></html>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &stubRenderer{err: errors.New("browser crashed")}
			svc := newStubService(tt.transport, renderer)

			listing, err := svc.Scrape(context.Background(), testOLXURL)
			require.NoError(t, err)
			require.NotNil(t, listing)

			assert.Equal(t, "toyota avanza 2019 iid 123456", listing.Title)
			assert.Equal(t, models.ContactSeller, listing.Price)
			assert.NotEmpty(t, listing.Description)
			assert.NotNil(t, listing.Images)
		})
	}
}

func TestScrapeSkipsRendererWhenResolved(t *testing.T) {
	renderer := &stubRenderer{}
	svc := newStubService(&stubTransport{status: 200, body: olxFixture}, renderer)

	_, err := svc.Scrape(context.Background(), testOLXURL)
	require.NoError(t, err)
	assert.Equal(t, 0, renderer.calls)
}
