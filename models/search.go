package models

import (
	"net/url"
	"strconv"
)

// SearchQuery is a fully resolved parameter set for the tour search API.
type SearchQuery struct {
	Type         int    `json:"type" validate:"min=1"`
	Kind         int    `json:"kind" validate:"min=1"`
	Country      int    `json:"country" validate:"required"`
	FromCity     int    `json:"from_city" validate:"required"`
	HotelRating  string `json:"hotel_rating" validate:"required"`
	AdultAmount  int    `json:"adult_amount" validate:"min=1,max=4"`
	ChildAmount  int    `json:"child_amount" validate:"min=0"`
	ChildAge     string `json:"child_age,omitempty" validate:"required_unless=ChildAmount 0"`
	NightFrom    int    `json:"night_from" validate:"min=1,max=30"`
	NightTill    int    `json:"night_till" validate:"min=1,max=30,gtefield=NightFrom"`
	DateFrom     string `json:"date_from" validate:"required"`
	DateTill     string `json:"date_till" validate:"required"`
	Currency     int    `json:"currency" validate:"required"`
	ItemsPerPage int    `json:"items_per_page" validate:"min=1"`
	PriceFrom    *int   `json:"price_from,omitempty"`
	PriceTill    *int   `json:"price_till,omitempty"`
	Page         int    `json:"page" validate:"min=1"`
}

// Values renders the query as URL parameters in the search API's naming.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	v.Set("type", strconv.Itoa(q.Type))
	v.Set("kind", strconv.Itoa(q.Kind))
	v.Set("country", strconv.Itoa(q.Country))
	v.Set("from_city", strconv.Itoa(q.FromCity))
	v.Set("hotel_rating", q.HotelRating)
	v.Set("adult_amount", strconv.Itoa(q.AdultAmount))
	v.Set("child_amount", strconv.Itoa(q.ChildAmount))
	if q.ChildAmount > 0 {
		v.Set("child_age", q.ChildAge)
	}
	v.Set("night_from", strconv.Itoa(q.NightFrom))
	v.Set("night_till", strconv.Itoa(q.NightTill))
	v.Set("date_from", q.DateFrom)
	v.Set("date_till", q.DateTill)
	v.Set("currency", strconv.Itoa(q.Currency))
	v.Set("items_per_page", strconv.Itoa(q.ItemsPerPage))
	v.Set("hotel_info", "1")
	if q.PriceFrom != nil {
		v.Set("price_from", strconv.Itoa(*q.PriceFrom))
	}
	if q.PriceTill != nil {
		v.Set("price_till", strconv.Itoa(*q.PriceTill))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// SearchResult is the canonical, error-free shape of a search response.
type SearchResult struct {
	Offers       []RawOffer `json:"offers"`
	HasMorePages bool       `json:"has_more_pages"`
	Page         int        `json:"page"`
}
