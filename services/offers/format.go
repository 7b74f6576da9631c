package offers

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"tourbot/models"
)

type resolvedPrice struct {
	amount float64
	symbol string
}

// pickPrice reads the requested currency, falling back to the first usable
// entry reported with its own currency symbol.
func pickPrice(prices models.PriceList, currencyID int) (resolvedPrice, bool) {
	if v, ok := prices.Lookup(currencyID); ok {
		return resolvedPrice{amount: v, symbol: models.CurrencySymbol(currencyID)}, true
	}
	for _, p := range prices {
		if p.Amount == nil {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(p.CurrencyID))
		if err != nil {
			continue
		}
		return resolvedPrice{amount: *p.Amount, symbol: models.CurrencySymbol(id)}, true
	}
	return resolvedPrice{}, false
}

func formatPrice(prices models.PriceList, currencyID int) string {
	p, ok := pickPrice(prices, currencyID)
	if !ok {
		return "—"
	}
	return strings.TrimSpace(groupThousands(int64(p.amount)) + " " + p.symbol)
}

// groupThousands renders n with a space between digit groups: 35000 -> "35 000".
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// stars turns the leading digit of a rating code into 1..5 stars.
func stars(rating string) string {
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return "—"
	}
	r, _ := utf8.DecodeRuneInString(rating)
	if r < '0' || r > '9' {
		return "—"
	}
	n := min(max(int(r-'0'), 1), 5)
	return strings.Repeat("★", n)
}

// formatDate turns YYYY-MM-DD into DD.MM.YYYY; other strings pass through.
func formatDate(s string) string {
	if s == "" {
		return "—"
	}
	t, ok := parseAPIDate(s)
	if !ok {
		return s
	}
	return t.Format("02.01.2006")
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}

func formatPeople(adults, children string) string {
	a, _ := strconv.Atoi(strings.TrimSpace(adults))
	c, _ := strconv.Atoi(strings.TrimSpace(children))

	var parts []string
	if a > 0 {
		if a == 1 {
			parts = append(parts, "1 дорослий")
		} else {
			parts = append(parts, strconv.Itoa(a)+" дорослих")
		}
	}
	if c > 0 {
		if c == 1 {
			parts = append(parts, "1 дитина")
		} else {
			parts = append(parts, strconv.Itoa(c)+" дітей")
		}
	}
	return strings.Join(parts, " • ")
}
