package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/berburumobil/listing-scraper/internal/models"
	"github.com/berburumobil/listing-scraper/internal/normalize"
)

var mobil123TitleSelectors = []string{
	"h1",
	".listing-title",
	".car-title",
	".title-txt",
	`[data-testid="listing-title"]`,
}

var mobil123PriceSelectors = []string{
	".price",
	".listing-price",
	".car-price",
	".price-value",
	`[data-testid="listing-price"]`,
}

var mobil123LocationSelectors = []string{
	".location",
	".listing-location",
	".car-location",
	".dealer-location",
	`[data-testid="dealer-location"]`,
}

var mobil123DescriptionSelectors = []string{
	".description",
	".listing-description",
	".car-description",
	".listing-desc",
	`[data-testid="listing-description"]`,
}

var (
	scriptPricePattern = regexp.MustCompile(`(?i)["']price["']:\s*["']?([^"',}]+)["']?`)
	scriptRpPattern    = regexp.MustCompile(`(?i)Rp\s*[\d,.]+`)
)

// extractMobil123 pulls listing fields from a Mobil123 detail page,
// including the spec table (mileage, transmission, fuel, color) that OLX
// lacks.
func extractMobil123(doc *goquery.Document) *models.Listing {
	l := models.NewListing()

	if title := firstText(doc, mobil123TitleSelectors); title != "" {
		l.Title = title
	}

	if price := firstText(doc, mobil123PriceSelectors); price != "" {
		l.Price = price
	}
	if l.Price == models.NotFound {
		if price := mobil123ScriptPrice(doc); price != "" {
			l.Price = price
		}
	}
	if l.Price == models.NotFound {
		if amount := metaContent(doc, "product:price:amount", "price"); amount != "" {
			l.Price = "Rp " + amount
		}
	}

	if location := firstText(doc, mobil123LocationSelectors); location != "" {
		l.Location = location
	}

	if desc := firstText(doc, mobil123DescriptionSelectors); desc != "" {
		l.Description = desc
	} else if desc := metaContent(doc, "description"); desc != "" {
		l.Description = desc
	}

	if mileage := firstText(doc, []string{".specs .mileage", `[data-label="Odometer"]`, ".odometer"}); mileage != "" {
		l.Mileage = mileage
	} else if mileage := specListEntry(doc, "km"); mileage != "" {
		l.Mileage = mileage
	}

	transmission := firstText(doc, []string{".specs .transmission", `[data-label="Transmission"]`})
	if transmission == "" {
		if transmission = specListEntry(doc, "Manual"); transmission == "" {
			transmission = specListEntry(doc, "Automatic")
		}
	}
	l.Specs = models.Specs{
		Transmission: transmission,
		FuelType:     firstText(doc, []string{".specs .fuel", `[data-label="Fuel Type"]`}),
		Color:        firstText(doc, []string{".specs .color", `[data-label="Color"]`}),
	}

	l.Year = normalize.YearFromTitle(l.Title)
	l.Images = resolveMobil123Images(doc)

	return l
}

// mobil123ScriptPrice scans inline script blocks for a price field when no
// visible element carries one. Some build variants only ship the price in
// bootstrap JSON.
func mobil123ScriptPrice(doc *goquery.Document) string {
	var price string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(strings.ToLower(text), "price") {
			return true
		}
		if m := scriptRpPattern.FindString(text); m != "" {
			price = m
			return false
		}
		if m := scriptPricePattern.FindStringSubmatch(text); m != nil {
			price = "Rp " + strings.TrimSpace(m[1])
			return false
		}
		return true
	})
	return price
}

// specListEntry finds the first spec-list item whose text contains needle.
func specListEntry(doc *goquery.Document, needle string) string {
	var found string
	doc.Find(".specs li, .specifications li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if strings.Contains(text, needle) {
			found = text
			return false
		}
		return true
	})
	return found
}
