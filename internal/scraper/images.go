package scraper

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/berburumobil/listing-scraper/internal/models"
)

// MaxResolvedImages caps the candidate URLs one listing may yield; the
// acquisition pipeline consumes a smaller prefix of this.
const MaxResolvedImages = 20

// Group-acceptance heuristic: an embedded photo array is a real gallery
// when it has at least minGalleryGroupSize members, or exactly one member
// in landscape orientation. Single portrait blobs are avatars and badges.
const minGalleryGroupSize = 3

var (
	imageArrayPattern = regexp.MustCompile(`"images":\s*\[[^\]]+\]`)
	externalIDPattern = regexp.MustCompile(`"external_id":\s*"([^"]+)"`)
	apolloFileIDInURL = regexp.MustCompile(`/files/([a-fA-F0-9-]+-ID)/`)
	apolloURLPattern  = regexp.MustCompile(`https://apollo\.olx\.co\.id/v1/files/[a-fA-F0-9-]+(?:-ID)?/image[^"'\s]*`)
)

// olxImageURL renders the highest standard quality variant of an OLX CDN
// image, regardless of which density the page linked.
func olxImageURL(id string) string {
	return "https://apollo.olx.co.id/v1/files/" + id + "/image;s=780x0;q=60"
}

// orderedSet keeps first-seen insertion order so resolver output is
// deterministic for the same input.
type orderedSet struct {
	seen map[string]struct{}
	keys []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(key string) {
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.keys = append(s.keys, key)
}

func (s *orderedSet) len() int { return len(s.keys) }

// ResolveImages identifies genuine listing photos in a raw page (static
// HTML or a live-DOM serialization) and returns deduplicated,
// quality-upgraded CDN URLs in a stable order, capped at MaxResolvedImages.
func ResolveImages(html string, source models.Source) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc = nil
	}
	switch source {
	case models.SourceMobil123:
		return resolveMobil123Images(doc)
	default:
		return resolveOLXImages(html, doc)
	}
}

// resolveOLXImages runs the 4-tier OLX strategy; each tier is tried only if
// the previous produced zero results.
func resolveOLXImages(html string, doc *goquery.Document) []string {
	ids := newOrderedSet()

	olxIDsFromImageArrays(html, ids)
	if ids.len() == 0 {
		olxIDsFromExternalIDScan(html, ids)
	}
	if ids.len() == 0 && doc != nil {
		olxIDsFromGalleryDOM(doc, ids)
	}
	if ids.len() == 0 {
		olxIDsFromCDNSweep(html, ids)
	}

	urls := make([]string, 0, len(ids.keys))
	for _, id := range ids.keys {
		if len(urls) == MaxResolvedImages {
			break
		}
		urls = append(urls, olxImageURL(id))
	}
	return urls
}

// Tier 1: embedded "images": [...] JSON blobs, filtered by the
// group-acceptance heuristic.
func olxIDsFromImageArrays(html string, ids *orderedSet) {
	for _, match := range imageArrayPattern.FindAllString(html, -1) {
		payload := strings.TrimPrefix(match, `"images":`)

		var group []models.ImageCandidate
		if err := json.Unmarshal([]byte(payload), &group); err != nil {
			continue
		}

		accepted := len(group) >= minGalleryGroupSize ||
			(len(group) == 1 && group[0].Width > group[0].Height)
		if !accepted {
			continue
		}

		for _, candidate := range group {
			if strings.Contains(candidate.ExternalID, "-ID") {
				ids.add(candidate.ExternalID)
			}
		}
	}
}

// Tier 2: isolated external_id fields anywhere in embedded JSON.
func olxIDsFromExternalIDScan(html string, ids *orderedSet) {
	for _, m := range externalIDPattern.FindAllStringSubmatch(html, -1) {
		if strings.Contains(m[1], "-ID") {
			ids.add(m[1])
		}
	}
}

// Tier 3: rendered gallery DOM nodes.
func olxIDsFromGalleryDOM(doc *goquery.Document, ids *orderedSet) {
	doc.Find(".slick-slide figure img, .slick-slide figure source, figure.slick-slide img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src == "" {
			if srcset, ok := sel.Attr("srcset"); ok {
				src = strings.Fields(srcset)[0]
			}
		}
		if !strings.Contains(src, "apollo.olx.co.id") {
			return
		}
		if m := apolloFileIDInURL.FindStringSubmatch(src); m != nil {
			ids.add(m[1])
		}
	})
}

// Tier 4: unscoped sweep of the whole page for CDN URL shapes.
func olxIDsFromCDNSweep(html string, ids *orderedSet) {
	for _, u := range apolloURLPattern.FindAllString(html, -1) {
		if m := apolloFileIDInURL.FindStringSubmatch(u); m != nil {
			ids.add(m[1])
		}
	}
}

// resolveMobil123Images extracts gallery photos from a Mobil123 page.
// Deduplication is by CDN filename, since the same image appears at
// several query-parameter variants.
func resolveMobil123Images(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}

	byID := newOrderedSet()
	urlByID := make(map[string]string)

	collect := func(src string) {
		if src == "" || !strings.Contains(src, "icarcdn.com") {
			return
		}
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		id := mobil123ImageID(src)
		if _, seen := urlByID[id]; seen {
			return
		}
		byID.add(id)
		urlByID[id] = src
	}

	// Tier 1: lazy-loaded gallery images.
	doc.Find(`[data-src*="gallery_"]`).Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("data-src")
		if !ok {
			src, _ = sel.Attr("src")
		}
		if strings.Contains(src, "gallery_") {
			collect(src)
		}
	})

	// Tier 2: any lazy-loaded CDN image that looks like a car photo.
	if byID.len() < 5 {
		doc.Find(`[data-src*="icarcdn.com"]`).Each(func(_ int, sel *goquery.Selection) {
			src, _ := sel.Attr("data-src")
			if strings.Contains(src, "logo") ||
				strings.Contains(src, "icon") ||
				strings.Contains(src, "safety_tips") ||
				strings.Contains(src, "profile_pic") {
				return
			}
			if strings.Contains(src, "gallery_") || strings.Contains(src, "main-s_") {
				collect(src)
			}
		})
	}

	// Tier 3: plain src attributes.
	if byID.len() == 0 {
		doc.Find(`img[src*="icarcdn.com"]`).Each(func(_ int, sel *goquery.Selection) {
			src, _ := sel.Attr("src")
			if strings.Contains(src, "logo") || strings.Contains(src, "icon") ||
				strings.Contains(src, "safety_tips") {
				return
			}
			collect(src)
		})
	}

	// Keep only the high-quality gallery variants.
	urls := make([]string, 0, byID.len())
	for _, id := range byID.keys {
		u := urlByID[id]
		if !strings.Contains(u, "gallery_") || strings.Contains(u, "thumb-") || !strings.Contains(u, ".webp") {
			continue
		}
		if len(urls) == MaxResolvedImages {
			break
		}
		urls = append(urls, u)
	}
	return urls
}

// mobil123ImageID reduces a CDN URL to its filename, the stable per-image
// identifier across size/query variants.
func mobil123ImageID(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if i := strings.LastIndex(src, "/"); i >= 0 {
		return src[i+1:]
	}
	return src
}
