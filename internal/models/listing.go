package models

// Sentinel field values. Downstream consumers (API responses, saved
// analyses) assume every field is present, so absence is always one of
// these strings, never an empty value.
const (
	NotFound      = "Tidak ditemukan"
	ContactSeller = "Hubungi penjual"
)

// Source identifies which marketplace a listing URL belongs to.
type Source string

const (
	SourceOLX      Source = "olx"
	SourceMobil123 Source = "mobil123"
)

// Specs holds marketplace-dependent vehicle details. Mobil123 pages carry
// them; OLX pages usually do not.
type Specs struct {
	Transmission string `json:"transmission,omitempty"`
	FuelType     string `json:"fuel_type,omitempty"`
	Color        string `json:"color,omitempty"`
}

// Listing is the canonical representation of one car-for-sale advertisement.
type Listing struct {
	Title       string   `json:"title"`
	Price       string   `json:"price"`
	Year        string   `json:"year"`
	Mileage     string   `json:"mileage"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Specs       Specs    `json:"specs"`
}

// NewListing returns a listing with every field at its sentinel value.
func NewListing() *Listing {
	return &Listing{
		Title:       NotFound,
		Price:       NotFound,
		Year:        NotFound,
		Mileage:     NotFound,
		Location:    NotFound,
		Description: NotFound,
		Images:      make([]string, 0),
	}
}

// Unresolved reports whether neither a title nor a price was extracted.
// Both missing is the trigger for the rendering fallback: it means the
// static document was an empty client-side shell.
func (l *Listing) Unresolved() bool {
	return (l.Title == NotFound || l.Title == "") &&
		(l.Price == NotFound || l.Price == "" || l.Price == "Harga tidak tersedia")
}

// ImageCandidate is one entry of an embedded-JSON photo array on a
// marketplace page. Candidates never leave the extraction pass.
type ImageCandidate struct {
	ExternalID string `json:"external_id"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// ProcessedImage is a base64-encoded, resolution-capped JPEG ready to be
// attached to a classifier request. Held in memory only for the duration
// of one request.
type ProcessedImage string
