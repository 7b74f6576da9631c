package models

// ExtractedFields is one extractor's opinion about a single user turn.
// A nil field means "no opinion", which is distinct from an explicit zero.
type ExtractedFields struct {
	CountryName  *string `json:"country_name"`
	CountryID    *int    `json:"country_id"`
	FromCityName *string `json:"from_city_name"`
	FromCityID   *int    `json:"from_city_id"`
	Adults       *int    `json:"adults"`
	Children     *int    `json:"children"`
	ChildAges    *string `json:"child_ages"` // "7:4:3"
	DateFrom     *string `json:"date_from"`
	DateTill     *string `json:"date_till"`
	CurrencyHint *string `json:"currency_hint"`
	BudgetFrom   *int    `json:"budget_from"`
	BudgetTo     *int    `json:"budget_to"`
}

// IsEmpty reports whether the extractor had no opinion at all.
func (f ExtractedFields) IsEmpty() bool {
	return f == ExtractedFields{}
}

// CandidateSlots is the merged, still optional, slot set for the current turn.
type CandidateSlots struct {
	CountryID    *int
	CountryName  *string
	FromCityID   *int
	FromCityName *string
	Adults       *int
	Children     *int
	ChildAges    *string
	DateFrom     *string
	DateTill     *string
	CurrencyHint *string
	BudgetFrom   *int
	BudgetTo     *int
}

// StringPtr and IntPtr are small helpers for building optional fields.
func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
