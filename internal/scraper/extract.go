package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/berburumobil/listing-scraper/internal/models"
)

// ErrEmptyDocument is returned when there is nothing to extract from at
// all. Missing individual fields are never an error.
var ErrEmptyDocument = errors.New("empty or malformed HTML document")

var priceShaped = regexp.MustCompile(`^(Rp|RP)\s*[\d,.]+`)

// ExtractListing runs the marketplace-specific tiered extraction over a raw
// page (static HTML or a live-DOM serialization). Fields it cannot find
// stay at their sentinel values.
func ExtractListing(html string, source models.Source) (*models.Listing, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	switch source {
	case models.SourceMobil123:
		return extractMobil123(doc), nil
	default:
		return extractOLX(html, doc), nil
	}
}

// firstText returns the first non-empty text among the ordered selector
// alternatives. Marketplaces rename classes routinely; order encodes
// specificity.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// metaContent returns the first non-empty content attribute among
// meta[property=...] / meta[name=...] alternatives.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		sel := fmt.Sprintf(`meta[property="%s"], meta[name="%s"]`, key, key)
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// scanPriceText is the last-resort price tier: walk every element looking
// for a short, newline-free, price-shaped text node.
func scanPriceText(doc *goquery.Document) string {
	var found string
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if priceShaped.MatchString(text) && len(text) < 50 && !strings.Contains(text, "\n") {
			found = text
			return false
		}
		return true
	})
	return found
}

func looksLikePrice(text string) bool {
	return text != "" &&
		(strings.Contains(text, "Rp") || strings.Contains(text, "RP")) &&
		strings.ContainsAny(text, "0123456789")
}
