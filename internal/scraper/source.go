package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/berburumobil/listing-scraper/internal/models"
)

// RejectionReason distinguishes why a URL was refused before any fetch.
type RejectionReason string

const (
	ReasonMalformedURL   RejectionReason = "malformed_url"
	ReasonSchemeNotHTTPS RejectionReason = "scheme_not_https"
	ReasonHostNotAllowed RejectionReason = "host_not_allowed"
	ReasonNotDetailPage  RejectionReason = "not_detail_page"
)

// UnsupportedURLError is the only error the scraping entrypoint surfaces to
// callers: the user has to change their input, so there is nothing to retry.
type UnsupportedURLError struct {
	Reason  RejectionReason
	Message string
}

func (e *UnsupportedURLError) Error() string {
	return fmt.Sprintf("unsupported url (%s): %s", e.Reason, e.Message)
}

var allowedHosts = map[string]models.Source{
	"olx.co.id":        models.SourceOLX,
	"www.olx.co.id":    models.SourceOLX,
	"mobil123.com":     models.SourceMobil123,
	"www.mobil123.com": models.SourceMobil123,
}

// Detail-page path shapes per marketplace. Search and category pages share
// the hostname but lack the fields this system needs, so the path must match.
var detailPaths = map[models.Source]*regexp.Regexp{
	models.SourceOLX:      regexp.MustCompile(`^/item/.+$`),
	models.SourceMobil123: regexp.MustCompile(`^/(dijual|mobil-bekas)/.+$`),
}

const manualInspectionHint = "Gunakan link halaman iklan langsung " +
	"(OLX: https://www.olx.co.id/item/..., Mobil123: https://www.mobil123.com/dijual/...). " +
	"Untuk halaman atau platform lain, kami menyediakan layanan inspeksi langsung oleh teknisi berpengalaman."

// ClassifyURL validates a submitted URL against the marketplace allow-list
// and returns which marketplace it belongs to. Every failure mode carries a
// distinct user-facing message.
func ClassifyURL(raw string) (models.Source, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", &UnsupportedURLError{
			Reason:  ReasonMalformedURL,
			Message: "Format URL tidak valid",
		}
	}

	if u.Scheme != "https" {
		return "", &UnsupportedURLError{
			Reason:  ReasonSchemeNotHTTPS,
			Message: "URL harus menggunakan HTTPS",
		}
	}

	source, ok := allowedHosts[strings.ToLower(u.Hostname())]
	if !ok {
		return "", &UnsupportedURLError{
			Reason:  ReasonHostNotAllowed,
			Message: "Hanya link dari OLX.co.id dan Mobil123.com yang didukung untuk analisis otomatis",
		}
	}

	if !detailPaths[source].MatchString(u.Path) {
		return "", &UnsupportedURLError{
			Reason:  ReasonNotDetailPage,
			Message: "Link bukan halaman detail iklan. " + manualInspectionHint,
		}
	}

	return source, nil
}

// titleFromSlug derives a probable title from the URL's last path segment,
// used when every extraction tier has failed.
func titleFromSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	segs := strings.Split(path, "/")
	if len(segs) == 0 {
		return ""
	}
	slug := segs[len(segs)-1]
	slug = strings.TrimSuffix(slug, ".html")
	slug = strings.ReplaceAll(slug, "-", " ")
	return strings.TrimSpace(slug)
}
