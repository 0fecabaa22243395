package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/berburumobil/listing-scraper/internal/models"
	"github.com/berburumobil/listing-scraper/internal/normalize"
)

var olxTitleSelectors = []string{
	"h1",
	`[data-cy="ad_title"]`,
	".ad-title",
}

var olxPriceSelectors = []string{
	`[data-aut-id="itemPrice"]`,
	`[data-testid="ad-price"]`,
	`.notranslate[data-aut-id="itemPrice"]`,
	`[data-testid="price"]`,
	".rui-2Pidb",
	".price",
	".ad-price",
	`[class*="Price"]`,
	`[class*="price"]`,
	`span[class*="price"]`,
	`div[class*="price"]`,
}

var olxLocationSelectors = []string{
	`[data-cy="ad_location"]`,
	".location",
	".ad-location",
	`[class*="location"]`,
}

var olxDescriptionSelectors = []string{
	`[data-cy="ad_description"]`,
	".description",
	".ad-description",
	`[class*="description"]`,
}

// extractOLX pulls listing fields from an OLX detail page. OLX pages do not
// expose a spec table, so mileage and specs stay at their sentinels.
func extractOLX(html string, doc *goquery.Document) *models.Listing {
	l := models.NewListing()

	if title := firstText(doc, olxTitleSelectors); title != "" {
		l.Title = title
	} else if title := metaContent(doc, "og:title"); title != "" {
		l.Title = title
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		l.Title = strings.TrimSpace(strings.SplitN(title, "|", 2)[0])
	}

	for _, sel := range olxPriceSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); looksLikePrice(text) {
			l.Price = text
			break
		}
	}
	if l.Price == models.NotFound {
		if amount := metaContent(doc, "product:price:amount", "og:price:amount"); amount != "" {
			l.Price = "Rp " + amount
		}
	}
	if l.Price == models.NotFound {
		if price := scanPriceText(doc); price != "" {
			l.Price = price
		}
	}

	if location := firstText(doc, olxLocationSelectors); location != "" {
		l.Location = location
	}

	if desc := firstText(doc, olxDescriptionSelectors); desc != "" {
		l.Description = desc
	} else if desc := metaContent(doc, "og:description"); desc != "" {
		l.Description = desc
	}

	l.Year = normalize.YearFromTitle(l.Title)
	l.Images = resolveOLXImages(html, doc)

	return l
}
