package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/berburumobil/listing-scraper/internal/models"
)

// Per-field sentinel strings for fields whose absence message differs from
// the generic models.NotFound.
const (
	PriceUnavailable       = "Harga tidak tersedia"
	TitleUnavailable       = "Judul tidak tersedia"
	LocationUnavailable    = "Lokasi tidak tersedia"
	DescriptionUnavailable = "Deskripsi tidak tersedia"
)

const maxDescriptionLen = 500

var (
	jsonArtifacts  = regexp.MustCompile(`[{}"\[\]]`)
	priceLabel     = regexp.MustCompile(`(?i)^(harga|price):\s*`)
	titleLabel     = regexp.MustCompile(`(?i)title:|judul:`)
	locationLabel  = regexp.MustCompile(`(?i)location:|lokasi:`)
	mileageLabel   = regexp.MustCompile(`(?i)mileage:|km:`)
	yearLabel      = regexp.MustCompile(`(?i)year:|tahun:`)
	descLabel      = regexp.MustCompile(`(?i)description:|deskripsi:`)
	rpPrefix       = regexp.MustCompile(`(?i)^rp\s*`)
	canonicalPrice = regexp.MustCompile(`^Rp \d{1,3}(\.\d{3})*$`)
	numericRun     = regexp.MustCompile(`[\d,.]+`)
	yearPattern    = regexp.MustCompile(`(?:\A|[^\d])((?:19|20)\d{2})(?:[^\d]|\z)`)
	hasDigit       = regexp.MustCompile(`\d`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// Price canonicalizes a scraped price string into "Rp" dot-grouped form,
// e.g. "Rp 175.000.000". Already-canonical input is returned unchanged, so
// the function is idempotent. Inputs without a numeric amount (like
// "Hubungi penjual") pass through cleaned but unformatted.
func Price(raw string) string {
	if raw == "" || raw == models.NotFound {
		return models.NotFound
	}

	clean := strings.TrimSpace(jsonArtifacts.ReplaceAllString(priceLabel.ReplaceAllString(raw, ""), ""))
	clean = rpPrefix.ReplaceAllString(clean, "Rp ")

	if canonicalPrice.MatchString(clean) {
		return clean
	}

	if numStr := numericRun.FindString(clean); numStr != "" {
		if v, ok := parseAmount(numStr); ok && v > 0 {
			return "Rp " + groupThousands(int64(math.Round(v)))
		}
	}

	lower := strings.ToLower(clean)
	if strings.Contains(lower, "rp") {
		return strings.TrimSpace(multiSpace.ReplaceAllString(clean, " "))
	}
	if strings.Contains(lower, "hubungi") || strings.Contains(lower, "nego") {
		return clean
	}
	if clean == "" {
		return PriceUnavailable
	}
	return clean
}

// parseAmount resolves Indonesian separator ambiguity: a trailing separator
// followed by at most two digits is a decimal mark, anything else groups
// thousands.
func parseAmount(s string) (float64, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			// 175,000.00 style
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// 175.000,00 style
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		parts := strings.Split(s, ".")
		if len(parts) > 2 || (len(parts) == 2 && len(parts[1]) > 2) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// groupThousands renders 175000000 as "175.000.000".
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Year extracts the first 4-digit year in the 1900–2099 range.
func Year(raw string) string {
	if raw == "" {
		return models.NotFound
	}
	clean := strings.TrimSpace(jsonArtifacts.ReplaceAllString(yearLabel.ReplaceAllString(raw, ""), ""))
	if m := yearPattern.FindStringSubmatch(clean); m != nil {
		return m[1]
	}
	return models.NotFound
}

// YearFromTitle derives the model year from a listing title.
func YearFromTitle(title string) string {
	return Year(title)
}

// Mileage appends a "km" unit when numeric content carries none.
func Mileage(raw string) string {
	if raw == "" {
		return models.NotFound
	}
	clean := strings.TrimSpace(jsonArtifacts.ReplaceAllString(mileageLabel.ReplaceAllString(raw, ""), ""))
	if clean == "" {
		return models.NotFound
	}
	if !strings.Contains(strings.ToLower(clean), "km") && hasDigit.MatchString(clean) {
		clean += " km"
	}
	return clean
}

// Title strips markup/JSON artifacts from a listing title.
func Title(raw string) string {
	clean := strings.TrimSpace(titleLabel.ReplaceAllString(jsonArtifacts.ReplaceAllString(raw, ""), ""))
	if clean == "" {
		return TitleUnavailable
	}
	return clean
}

// Location strips markup/JSON artifacts from a location string.
func Location(raw string) string {
	clean := strings.TrimSpace(locationLabel.ReplaceAllString(jsonArtifacts.ReplaceAllString(raw, ""), ""))
	if clean == "" {
		return LocationUnavailable
	}
	return clean
}

// Description cleans and truncates a description to a bounded length.
func Description(raw string) string {
	clean := strings.TrimSpace(descLabel.ReplaceAllString(jsonArtifacts.ReplaceAllString(raw, ""), ""))
	if clean == "" {
		return DescriptionUnavailable
	}
	runes := []rune(clean)
	if len(runes) > maxDescriptionLen {
		clean = string(runes[:maxDescriptionLen])
	}
	return clean
}

// Listing applies every field normalizer in place. Safe on nil.
func Listing(l *models.Listing) {
	if l == nil {
		return
	}
	l.Title = Title(l.Title)
	l.Price = Price(l.Price)
	l.Year = Year(l.Year)
	if l.Year == models.NotFound {
		l.Year = YearFromTitle(l.Title)
	}
	l.Mileage = Mileage(l.Mileage)
	l.Location = Location(l.Location)
	l.Description = Description(l.Description)
	if l.Images == nil {
		l.Images = make([]string, 0)
	}
}
