// Package offers groups raw search offers by hotel and renders them as
// ranked display cards.
package offers

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"tourbot/models"
)

// MaxResults bounds the number of cards per search.
const MaxResults = 10

const apiDateLayout = "2006-01-02"

// unpriced sorts after every real price.
const unpriced = math.MaxFloat64

// card is a rendered group together with the price it was ranked by.
type card struct {
	display models.DisplayOffer
	price   float64
	priced  bool
}

// Rank groups offers by hotel, keeps the cheapest variant per departure date
// and renders one card per hotel, cheapest first, at most MaxResults.
func Rank(offers []models.RawOffer, currencyID int) []models.DisplayOffer {
	cards := buildCards(offers, currencyID)
	out := make([]models.DisplayOffer, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.display)
	}
	return out
}

func buildCards(offers []models.RawOffer, currencyID int) []card {
	if len(offers) == 0 {
		return nil
	}

	var cards []card
	for _, group := range groupByHotel(offers) {
		variants := collapseByDate(dedupe(group), currencyID)
		if len(variants) == 0 {
			continue
		}
		sortByDate(variants)
		cards = append(cards, renderGroup(variants, currencyID))
	}

	// Ranked by the price as rendered in the caption.
	sort.SliceStable(cards, func(i, j int) bool {
		return renderedPrice(cards[i].display.Caption) < renderedPrice(cards[j].display.Caption)
	})
	if len(cards) > MaxResults {
		cards = cards[:MaxResults]
	}
	return cards
}

// groupByHotel keeps groups in order of first appearance.
func groupByHotel(offers []models.RawOffer) [][]models.RawOffer {
	index := make(map[string]int)
	var groups [][]models.RawOffer
	for _, o := range offers {
		key := hotelKey(o)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], o)
	}
	return groups
}

func hotelKey(o models.RawOffer) string {
	if id := strings.TrimSpace(string(o.HotelID)); id != "" {
		return "id\x00" + id
	}
	return strings.Join([]string{
		"fallback",
		strings.ToLower(strings.TrimSpace(o.HotelName())),
		strings.ToLower(strings.TrimSpace(string(o.Region))),
		strings.ToLower(strings.TrimSpace(string(o.Country))),
		string(o.HotelRating),
	}, "\x00")
}

func dedupe(group []models.RawOffer) []models.RawOffer {
	seen := make(map[string]struct{}, len(group))
	out := make([]models.RawOffer, 0, len(group))
	for _, o := range group {
		key := string(o.DateFrom) + "\x00" + o.Nights() + "\x00" + o.Prices.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// collapseByDate keeps the cheapest variant per departure date. A variant
// without a price never replaces one that has a price.
func collapseByDate(group []models.RawOffer, currencyID int) []models.RawOffer {
	index := make(map[string]int)
	var out []models.RawOffer
	for _, o := range group {
		d := string(o.DateFrom)
		i, ok := index[d]
		if !ok {
			index[d] = len(out)
			out = append(out, o)
			continue
		}
		if sortPrice(o, currencyID) < sortPrice(out[i], currencyID) {
			out[i] = o
		}
	}
	return out
}

func sortPrice(o models.RawOffer, currencyID int) float64 {
	if p, ok := pickPrice(o.Prices, currencyID); ok {
		return p.amount
	}
	return unpriced
}

// sortByDate orders valid dates chronologically; missing or unparsable
// dates go last, keeping their relative order.
func sortByDate(variants []models.RawOffer) {
	sort.SliceStable(variants, func(i, j int) bool {
		ti, okI := parseAPIDate(string(variants[i].DateFrom))
		tj, okJ := parseAPIDate(string(variants[j].DateFrom))
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}

func parseAPIDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(apiDateLayout, s)
	return t, err == nil
}

// renderGroup picks the cheapest variant as the main offer; the rest become
// secondary lines in date order.
func renderGroup(variants []models.RawOffer, currencyID int) card {
	mainIdx := 0
	for i := range variants {
		if sortPrice(variants[i], currencyID) < sortPrice(variants[mainIdx], currencyID) {
			mainIdx = i
		}
	}
	main := variants[mainIdx]

	lines := []string{mainCaption(main, currencyID)}
	if len(variants) > 1 {
		lines = append(lines, "")
		for i, o := range variants {
			if i == mainIdx {
				continue
			}
			lines = append(lines,
				"• 🗓️ "+formatDate(string(o.DateFrom))+" • 🛌 "+orDash(o.Nights())+" ноч.",
				"💰 "+formatPrice(o.Prices, currencyID),
			)
		}
	}

	c := card{display: models.DisplayOffer{
		Caption:  strings.TrimSpace(strings.Join(lines, "\n")),
		ImageURL: main.HotelImages.First(),
	}}
	if p, ok := pickPrice(main.Prices, currencyID); ok {
		c.price, c.priced = p.amount, true
	}
	return c
}

func mainCaption(o models.RawOffer, currencyID int) string {
	hotel := o.HotelName()
	if strings.TrimSpace(hotel) == "" {
		hotel = "Готель"
	}

	var b strings.Builder
	b.WriteString(truncate(hotel, 60) + " " + stars(string(o.HotelRating)) + "\n")
	b.WriteString(truncate(orDash(string(o.Region)), 40) + ", " + orDash(string(o.Country)) + "\n")
	b.WriteString("🍽 " + orDash(o.Meal()) + "\n")
	if people := formatPeople(string(o.AdultAmount), string(o.ChildAmount)); people != "" {
		b.WriteString("👥 " + people + "\n")
	}
	b.WriteString("🛫 " + orDash(string(o.FromCity)) +
		" • 🗓️ " + formatDate(string(o.DateFrom)) +
		" • 🛌 " + orDash(o.Nights()) + " ноч.\n")
	b.WriteString("💰 " + formatPrice(o.Prices, currencyID))
	return b.String()
}

// renderedPrice re-reads the digits of the first price line.
func renderedPrice(caption string) float64 {
	for _, line := range strings.Split(caption, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "💰") {
			continue
		}
		var digits strings.Builder
		for _, r := range line {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		v, err := strconv.ParseFloat(digits.String(), 64)
		if err != nil {
			return unpriced
		}
		return v
	}
	return unpriced
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
