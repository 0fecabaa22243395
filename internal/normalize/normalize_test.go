package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berburumobil/listing-scraper/internal/models"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare digits get grouped",
			raw:  "175000000",
			want: "Rp 175.000.000",
		},
		{
			name: "dot separated with prefix",
			raw:  "Rp 175.000.000",
			want: "Rp 175.000.000",
		},
		{
			name: "prefix without space",
			raw:  "Rp175.000.000",
			want: "Rp 175.000.000",
		},
		{
			name: "uppercase prefix",
			raw:  "RP 95.500.000",
			want: "Rp 95.500.000",
		},
		{
			name: "comma thousands",
			raw:  "Rp 175,000,000",
			want: "Rp 175.000.000",
		},
		{
			name: "empty string",
			raw:  "",
			want: models.NotFound,
		},
		{
			name: "not found sentinel passes through",
			raw:  models.NotFound,
			want: models.NotFound,
		},
		{
			name: "contact seller passes through",
			raw:  models.ContactSeller,
			want: models.ContactSeller,
		},
		{
			name: "negotiable text passes through",
			raw:  "Nego",
			want: "Nego",
		},
		{
			name: "price with label prefix",
			raw:  "Harga: Rp 80.000.000",
			want: "Rp 80.000.000",
		},
		{
			name: "non price text passes through",
			raw:  "lihat deskripsi",
			want: "lihat deskripsi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Price(tt.raw))
		})
	}
}

// Price must be a fixed point: running it twice never changes the result.
func TestPriceIdempotent(t *testing.T) {
	inputs := []string{
		"175000000",
		"Rp 175.000.000",
		"Rp175.000.000",
		"RP 95,500,000",
		"",
		models.NotFound,
		models.ContactSeller,
		"Nego",
		"Harga: Rp 80.000.000",
		"1.250.000",
		"Rp 1.5",
	}

	for _, raw := range inputs {
		once := Price(raw)
		twice := Price(once)
		assert.Equal(t, once, twice, "Price(%q) is not idempotent", raw)
	}
}

func TestYearFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Toyota Avanza 2019 G Manual", "2019"},
		{"Honda Jazz RS 2015", "2015"},
		{"Dijual cepat Xenia", models.NotFound},
		{"Mobil 12019 promo", models.NotFound},
		{"", models.NotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, YearFromTitle(tt.title), "title %q", tt.title)
	}
}

func TestMileage(t *testing.T) {
	assert.Equal(t, "45.000 km", Mileage("45.000"))
	assert.Equal(t, "45.000 km", Mileage("45.000 km"))
	assert.Equal(t, models.NotFound, Mileage(""))
}

func TestDescriptionCapsLength(t *testing.T) {
	long := strings.Repeat("a", 800)
	got := Description(long)
	assert.Len(t, []rune(got), maxDescriptionLen)

	short := "Mobil terawat, pajak hidup."
	assert.Equal(t, short, Description(short))
	assert.Equal(t, DescriptionUnavailable, Description(""))
}

func TestListingAppliesAllFields(t *testing.T) {
	l := models.NewListing()
	l.Title = "  Toyota Avanza 2019  "
	l.Price = "175000000"
	l.Mileage = "45.000"

	Listing(l)

	assert.Equal(t, "Toyota Avanza 2019", l.Title)
	assert.Equal(t, "Rp 175.000.000", l.Price)
	assert.Equal(t, "2019", l.Year)
	assert.Equal(t, "45.000 km", l.Mileage)
	assert.Equal(t, models.NotFound, l.Location)
}
