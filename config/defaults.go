package config

// Defaults are the fixed server-side search parameters.
type Defaults struct {
	Type         int
	Kind         int
	HotelRating  string
	AdultAmount  int
	ChildAmount  int
	NightFrom    int
	NightTill    int
	ItemsPerPage int
	Currency     int
}

// SearchDefaults returns the defaults, with the currency taken from AppConfig.
func SearchDefaults() Defaults {
	currency := AppConfig.CurrencyDefault
	if currency == 0 {
		currency = 2
	}
	return Defaults{
		Type:         1,
		Kind:         1,
		HotelRating:  "78",
		AdultAmount:  2,
		ChildAmount:  0,
		NightFrom:    6,
		NightTill:    8,
		ItemsPerPage: 10,
		Currency:     currency,
	}
}
