package model

// Listing is a single vehicle listing extracted from a search-results page.
//
// Only Title is guaranteed to be set; a listing without a title is never
// emitted. The remaining fields are best effort: the numeric fields use zero
// and State uses the empty string when the source markup omits them.
type Listing struct {
	// Title is the listing headline, e.g. "2015 Subaru Outback 2.5i".
	Title string `json:"title"`

	// URL is the absolute URL of the listing's detail page.
	URL string `json:"url"`

	// Year is the model year parsed from the leading digits of Title.
	Year int `json:"year,omitempty"`

	// Price is the asking price with currency symbols and separators removed.
	Price int `json:"price,omitempty"`

	// Odometer is the odometer reading in kilometres.
	Odometer int `json:"odometer,omitempty"`

	// State is the region or state the vehicle is listed in.
	State string `json:"state,omitempty"`
}

// Valid reports whether the listing may be emitted.
func (l Listing) Valid() bool {
	return l.Title != ""
}
