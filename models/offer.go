package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string, number or bool and keeps its textual form.
// null decodes to the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		*f = ""
		return nil
	}
	*f = FlexString(b)
	return nil
}

func (f FlexString) String() string { return string(f) }

// Price is one entry of an offer's per-currency price map.
type Price struct {
	CurrencyID string
	Amount     *float64
}

// PriceList keeps the price map entries in the order the API sent them.
type PriceList []Price

func (p *PriceList) UnmarshalJSON(b []byte) error {
	*p = nil
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		// Anything but an object carries no usable prices.
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		*p = append(*p, Price{CurrencyID: key, Amount: parseAmount(raw)})
	}
	return nil
}

// MarshalJSON writes the entries back as an object in their original order.
func (p PriceList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.CurrencyID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if e.Amount == nil {
			buf.WriteString("null")
		} else {
			buf.WriteString(strconv.FormatFloat(*e.Amount, 'f', -1, 64))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the amount stored under the given currency id.
func (p PriceList) Lookup(currencyID int) (float64, bool) {
	key := strconv.Itoa(currencyID)
	for _, e := range p {
		if e.CurrencyID == key && e.Amount != nil {
			return *e.Amount, true
		}
	}
	return 0, false
}

// Key concatenates all entries; used to detect exact duplicates.
func (p PriceList) Key() string {
	parts := make([]string, 0, len(p))
	for _, e := range p {
		amount := ""
		if e.Amount != nil {
			amount = strconv.FormatFloat(*e.Amount, 'f', -1, 64)
		}
		parts = append(parts, e.CurrencyID+":"+amount)
	}
	return strings.Join(parts, "|")
}

// parseAmount reads a price that may be a number, a numeric string, null or
// garbage. Only real numbers yield a value.
func parseAmount(raw json.RawMessage) *float64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

// OfferImage is one hotel picture reference.
type OfferImage struct {
	Full  FlexString `json:"full"`
	Thumb FlexString `json:"thumb"`
}

// ImageList decodes a list of images; any other JSON value yields no images.
type ImageList []OfferImage

func (l *ImageList) UnmarshalJSON(b []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for _, r := range raw {
		var img OfferImage
		if err := json.Unmarshal(r, &img); err == nil {
			*l = append(*l, img)
		}
	}
	return nil
}

// First returns the first usable image reference.
func (l ImageList) First() string {
	if len(l) == 0 {
		return ""
	}
	if l[0].Full != "" {
		return string(l[0].Full)
	}
	return string(l[0].Thumb)
}

// RawOffer is one record of the search API response.
type RawOffer struct {
	HotelID      FlexString `json:"hotel_id"`
	Hotel        FlexString `json:"hotel"`
	Name         FlexString `json:"name"`
	Region       FlexString `json:"region"`
	Country      FlexString `json:"country"`
	HotelRating  FlexString `json:"hotel_rating"`
	DateFrom     FlexString `json:"date_from"`
	Duration     FlexString `json:"duration"`
	HNight       FlexString `json:"hnight"`
	Prices       PriceList  `json:"prices"`
	MealTypeFull FlexString `json:"meal_type_full"`
	MealType     FlexString `json:"meal_type"`
	AdultAmount  FlexString `json:"adult_amount"`
	ChildAmount  FlexString `json:"child_amount"`
	FromCity     FlexString `json:"from_city"`
	HotelImages  ImageList  `json:"hotel_images"`
}

// HotelName prefers the "hotel" field and falls back to "name".
func (o RawOffer) HotelName() string {
	if o.Hotel != "" {
		return string(o.Hotel)
	}
	return string(o.Name)
}

// Meal prefers the full meal plan name.
func (o RawOffer) Meal() string {
	if o.MealTypeFull != "" {
		return string(o.MealTypeFull)
	}
	return string(o.MealType)
}

// Nights prefers "duration" and falls back to "hnight".
func (o RawOffer) Nights() string {
	if o.Duration != "" {
		return string(o.Duration)
	}
	return string(o.HNight)
}

// DisplayOffer is one rendered result unit.
type DisplayOffer struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"imageUrl,omitempty"`
}
