package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berburumobil/listing-scraper/internal/models"
)

func olxImageBlob(count int, width, height int, prefix string) string {
	entries := make([]string, count)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"external_id":"%s%02d-ID","width":%d,"height":%d}`, prefix, i, width, height)
	}
	return `"images": [` + strings.Join(entries, ",") + `]`
}

func TestResolveOLXImagesFromArrays(t *testing.T) {
	html := `<html><body><script>var state = {` + olxImageBlob(5, 1080, 720, "aa") + `};</script></body></html>`

	urls := ResolveImages(html, models.SourceOLX)

	require.Len(t, urls, 5)
	assert.Equal(t, "https://apollo.olx.co.id/v1/files/aa00-ID/image;s=780x0;q=60", urls[0])
	for _, u := range urls {
		assert.Contains(t, u, ";s=780x0;q=60")
	}
}

func TestResolveOLXImagesRejectsAvatarGroups(t *testing.T) {
	// A lone portrait image is a profile picture, not a gallery.
	portrait := olxImageBlob(1, 200, 400, "bb")
	// A lone landscape image is accepted as a one-photo gallery.
	landscape := olxImageBlob(1, 800, 600, "cc")
	// Two images are below the group threshold.
	pair := olxImageBlob(2, 1080, 720, "dd")

	html := `<script>` + portrait + `;` + landscape + `;` + pair + `</script>`
	urls := ResolveImages(html, models.SourceOLX)

	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], "cc00-ID")
}

func TestResolveOLXImagesCapped(t *testing.T) {
	html := `<script>` + olxImageBlob(25, 1080, 720, "ee") + `</script>`

	urls := ResolveImages(html, models.SourceOLX)
	assert.Len(t, urls, MaxResolvedImages)
}

func TestResolveOLXImagesDeduplicates(t *testing.T) {
	blob1 := olxImageBlob(3, 1080, 720, "ff")
	blob2 := olxImageBlob(3, 1080, 720, "ff")

	html := `<script>` + blob1 + `;` + blob2 + `</script>`
	urls := ResolveImages(html, models.SourceOLX)
	assert.Len(t, urls, 3)
}

func TestResolveOLXImagesExternalIDFallback(t *testing.T) {
	// No qualifying "images" array, but external_id fields exist in the page.
	html := `<script>{"gallery":{"external_id":"1234abcd-ID"},"other":{"external_id":"5678efef-ID"}}</script>`

	urls := ResolveImages(html, models.SourceOLX)
	require.Len(t, urls, 2)
	assert.Equal(t, olxImageURL("1234abcd-ID"), urls[0])
}

func TestResolveOLXImagesCDNSweep(t *testing.T) {
	html := `<img src="https://apollo.olx.co.id/v1/files/abcd1234-ID/image;s=300x0;q=40">`

	urls := ResolveImages(html, models.SourceOLX)
	require.Len(t, urls, 1)
	// Whatever variant the page linked, output is the standard quality.
	assert.Equal(t, "https://apollo.olx.co.id/v1/files/abcd1234-ID/image;s=780x0;q=60", urls[0])
}

func TestResolveMobil123Images(t *testing.T) {
	html := `<html><body>
		<img data-src="https://img.icarcdn.com/cars/gallery_one.webp?v=1">
		<img data-src="https://img.icarcdn.com/cars/gallery_two.webp">
		<img data-src="https://img.icarcdn.com/cars/gallery_one.webp?v=2">
		<img data-src="https://img.icarcdn.com/site/logo-mobil123.webp">
		<img data-src="https://img.icarcdn.com/cars/thumb-gallery_three.webp">
		<img data-src="https://img.icarcdn.com/cars/gallery_four.jpg">
	</body></html>`

	urls := ResolveImages(html, models.SourceMobil123)

	// gallery_one appears once despite two query variants; the logo,
	// thumb- and non-webp variants are filtered out.
	require.Len(t, urls, 2)
	assert.Contains(t, urls[0], "gallery_one.webp")
	assert.Contains(t, urls[1], "gallery_two.webp")
}

func TestResolveMobil123ImagesProtocolRelative(t *testing.T) {
	html := `<img data-src="//img.icarcdn.com/cars/gallery_five.webp">`

	urls := ResolveImages(html, models.SourceMobil123)
	require.Len(t, urls, 1)
	assert.True(t, strings.HasPrefix(urls[0], "https://"))
}

func TestResolveImagesEmptyDocument(t *testing.T) {
	assert.Empty(t, ResolveImages("", models.SourceOLX))
	assert.Empty(t, ResolveImages("", models.SourceMobil123))
}
