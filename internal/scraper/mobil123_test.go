package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berburumobil/listing-scraper/internal/models"
)

const mobil123Fixture = `<!DOCTYPE html>
<html>
<head><title>Dijual Honda Brio Satya E 2020</title></head>
<body>
	<h1>Honda Brio Satya E 2020</h1>
	<div class="price">Rp 145.000.000</div>
	<div class="listing-location">Bandung, Jawa Barat</div>
	<div class="listing-description">Brio Satya tangan pertama, kondisi istimewa.</div>
	<ul class="specs">
		<li>35.000 km</li>
		<li data-label="Transmission">Automatic</li>
		<li data-label="Fuel Type">Bensin</li>
		<li data-label="Color">Putih</li>
	</ul>
	<img data-src="https://img.icarcdn.com/cars/gallery_brio-01.webp">
	<img data-src="https://img.icarcdn.com/cars/gallery_brio-02.webp">
</body>
</html>`

func TestExtractMobil123Listing(t *testing.T) {
	listing, err := ExtractListing(mobil123Fixture, models.SourceMobil123)
	require.NoError(t, err)

	assert.Equal(t, "Honda Brio Satya E 2020", listing.Title)
	assert.Equal(t, "Rp 145.000.000", listing.Price)
	assert.Equal(t, "2020", listing.Year)
	assert.Equal(t, "Bandung, Jawa Barat", listing.Location)
	assert.Equal(t, "35.000 km", listing.Mileage)
	assert.Equal(t, "Automatic", listing.Specs.Transmission)
	assert.Equal(t, "Bensin", listing.Specs.FuelType)
	assert.Equal(t, "Putih", listing.Specs.Color)
	require.Len(t, listing.Images, 2)
	assert.Contains(t, listing.Images[0], "gallery_brio-01")
}

func TestExtractMobil123ScriptPrice(t *testing.T) {
	html := `<html><body>
	<h1>Daihatsu Xenia 2017</h1>
	<script>window.__BOOTSTRAP = {"listing":{"price": "Rp 115.000.000","id":42}};</script>
</body></html>`

	listing, err := ExtractListing(html, models.SourceMobil123)
	require.NoError(t, err)
	assert.Equal(t, "Rp 115.000.000", listing.Price)
}

func TestExtractMobil123ScriptPriceNumericField(t *testing.T) {
	html := `<html><body>
	<script>var data = {"price": 98500000, "currency":"IDR"};</script>
</body></html>`

	listing, err := ExtractListing(html, models.SourceMobil123)
	require.NoError(t, err)
	assert.Equal(t, "Rp 98500000", listing.Price)
}

func TestExtractMobil123SpecListFallbacks(t *testing.T) {
	html := `<html><body>
	<h1>Toyota Calya 2021</h1>
	<ul class="specifications">
		<li>12.000 km</li>
		<li>Manual</li>
	</ul>
</body></html>`

	listing, err := ExtractListing(html, models.SourceMobil123)
	require.NoError(t, err)
	assert.Equal(t, "12.000 km", listing.Mileage)
	assert.Equal(t, "Manual", listing.Specs.Transmission)
}
