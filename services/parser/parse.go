// Package parser is the rule-based extractor: it reads search slots out of
// free-form Ukrainian text with regular expressions and keyword tables.
package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tourbot/models"
	"tourbot/services/dates"
	"tourbot/services/places"
)

const (
	wordExpr = `\p{L}[\p{L}'’\-]*`
	lead     = `(?:^|[^\p{L}\d])`
)

var (
	fromCityExpr = regexp.MustCompile(lead + `(?:з|із|зі)\s+(` + wordExpr + `(?:\s+` + wordExpr + `)?)`)
	countryExpr  = regexp.MustCompile(lead + `(?:до|в|у|на)\s+(` + wordExpr + `(?:\s+` + wordExpr + `)?)`)

	// Adults need a keyword so that "на 25.06" never becomes 25 adults.
	adultsExpr     = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*(?:доросл|людин|осіб|чол|персон|people|adult)`)
	adultWordsExpr = regexp.MustCompile(lead + `(\p{L}+)\s+(?:доросл|людин|осіб|чол|персон)`)
	childrenExpr   = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*(?:дит|діт)`)
	noChildrenExpr = regexp.MustCompile(lead + `без\s+(?:дітей|діток)`)
	childAgesExpr  = regexp.MustCompile(`(?:^|[^\d.,/])(\d{1,2}(?:\s*(?:,|і|та)\s*\d{1,2})*)\s*(?:рок|рік)`)
	numberExpr     = regexp.MustCompile(`\d+`)

	budgetRangeExpr  = regexp.MustCompile(lead + `від\s*(\d+)\s*до\s*(\d+)(?:[^\d.,/]|$)`)
	budgetUpToExpr   = regexp.MustCompile(lead + `до\s*(\d+)(?:[^\d.,/]|$)`)
	budgetAboutExpr  = regexp.MustCompile(lead + `близько\s*(\d+)(?:[^\d.,/]|$)`)
	budgetPlainExpr  = regexp.MustCompile(lead + `бюджет\D{0,3}?(\d+)(?:[^\d.,/]|$)`)
	numericDateExpr  = regexp.MustCompile(`\d{1,2}[.,/]\d{1,2}(?:[.,/]\d{2,4})?`)
	monthNameDateExp = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+)(?:\s+(\d{4}))?`)
)

var numberWords = map[string]int{
	"один": 1, "одного": 1, "одна": 1, "однієї": 1, "одній": 1,
	"два": 2, "двох": 2, "двоє": 2, "дві": 2,
	"три": 3, "трьох": 3, "троє": 3,
	"чотири": 4, "чотирьох": 4, "четверо": 4,
}

var (
	usdHints = []string{"usd", "дол", "$"}
	eurHints = []string{"eur", "євро", "€"}
	uahHints = []string{"uah", "грн", "гривн"}
)

// approxSpread is the +/- range applied to "близько N" budgets.
const approxSpread = 200

// Parser extracts slots with rules. Country and city names are emitted only
// when they resolve against the reference tables.
type Parser struct {
	countries *places.Table
	cities    *places.Table
}

// New returns a parser bound to the reference tables.
func New(countries, cities *places.Table) *Parser {
	return &Parser{countries: countries, cities: cities}
}

// Parse extracts every slot it can find in text.
func (p *Parser) Parse(text string) models.ExtractedFields {
	t := strings.ToLower(strings.TrimSpace(text))
	var out models.ExtractedFields
	if t == "" {
		return out
	}

	if name, id, ok := p.resolveAfter(fromCityExpr, t, p.cities); ok {
		out.FromCityName, out.FromCityID = &name, &id
	}
	if name, id, ok := p.resolveCountry(t); ok {
		out.CountryName, out.CountryID = &name, &id
	}

	out.Adults = parseAdults(t)
	out.Children = parseChildren(t)
	out.ChildAges = parseChildAges(t)
	out.BudgetFrom, out.BudgetTo = parseBudget(t)
	out.CurrencyHint = parseCurrency(t)
	out.DateFrom, out.DateTill = parseDates(t)
	return out
}

func (p *Parser) resolveCountry(t string) (string, int, bool) {
	if p.countries == nil {
		return "", 0, false
	}
	if name, id, ok := p.resolveAfter(countryExpr, t, p.countries); ok {
		return name, id, true
	}
	// A short bare reply such as "Єгипет" answers the destination prompt.
	if words := strings.Fields(t); len(words) > 0 && len(words) <= 3 {
		if id, ok := p.countries.Resolve(t); ok {
			return canonical(p.countries, id, t), id, true
		}
	}
	return "", 0, false
}

// resolveAfter tries every phrase captured by expr, two words first and then
// one, and returns the first that resolves.
func (p *Parser) resolveAfter(expr *regexp.Regexp, t string, table *places.Table) (string, int, bool) {
	if table == nil {
		return "", 0, false
	}
	for _, m := range expr.FindAllStringSubmatch(t, -1) {
		phrase := strings.TrimSpace(m[1])
		candidates := []string{phrase}
		if words := strings.Fields(phrase); len(words) > 1 {
			candidates = append(candidates, words[0])
		}
		for _, c := range candidates {
			if id, ok := table.Resolve(c); ok {
				return canonical(table, id, c), id, true
			}
		}
	}
	return "", 0, false
}

func canonical(table *places.Table, id int, fallback string) string {
	if name, ok := table.NameByID(id); ok {
		return name
	}
	return fallback
}

func parseAdults(t string) *int {
	if m := adultsExpr.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	for _, m := range adultWordsExpr.FindAllStringSubmatch(t, -1) {
		if n, ok := numberWords[m[1]]; ok {
			return &n
		}
	}
	return nil
}

func parseChildren(t string) *int {
	if noChildrenExpr.MatchString(t) {
		return models.IntPtr(0)
	}
	if m := childrenExpr.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

func parseChildAges(t string) *string {
	var ages []string
	for _, m := range childAgesExpr.FindAllStringSubmatch(t, -1) {
		ages = append(ages, numberExpr.FindAllString(m[1], -1)...)
	}
	if len(ages) == 0 {
		return nil
	}
	joined := strings.Join(ages, ":")
	return &joined
}

func parseBudget(t string) (from, to *int) {
	if loc := budgetRangeExpr.FindStringSubmatchIndex(t); loc != nil && !followedByMonth(t, loc[5]) {
		lo, _ := strconv.Atoi(t[loc[2]:loc[3]])
		hi, _ := strconv.Atoi(t[loc[4]:loc[5]])
		return &lo, &hi
	}
	for _, loc := range budgetUpToExpr.FindAllStringSubmatchIndex(t, -1) {
		// "до 20 червня" is a date, not a budget.
		if followedByMonth(t, loc[3]) {
			continue
		}
		hi, _ := strconv.Atoi(t[loc[2]:loc[3]])
		to = &hi
		break
	}
	if to == nil {
		if m := budgetAboutExpr.FindStringSubmatch(t); m != nil {
			v, _ := strconv.Atoi(m[1])
			lo, hi := max(0, v-approxSpread), v+approxSpread
			return &lo, &hi
		}
	}
	if to == nil {
		if m := budgetPlainExpr.FindStringSubmatch(t); m != nil {
			hi, _ := strconv.Atoi(m[1])
			to = &hi
		}
	}
	return from, to
}

func followedByMonth(t string, end int) bool {
	next := strings.Fields(t[end:])
	return len(next) > 0 && dates.IsMonthName(strings.Trim(next[0], ",.;!?"))
}

func parseCurrency(t string) *string {
	switch {
	case containsAny(t, usdHints):
		return models.StringPtr("usd")
	case containsAny(t, eurHints):
		return models.StringPtr("eur")
	case containsAny(t, uahHints):
		return models.StringPtr("uah")
	}
	return nil
}

func containsAny(t string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(t, h) {
			return true
		}
	}
	return false
}

type dateHit struct {
	pos  int
	text string
}

// parseDates returns the first and second date mentioned, as typed.
func parseDates(t string) (from, till *string) {
	var hits []dateHit
	for _, loc := range numericDateExpr.FindAllStringIndex(t, -1) {
		if loc[0] > 0 && isDigit(t[loc[0]-1]) {
			continue
		}
		if loc[1] < len(t) && isDigit(t[loc[1]]) {
			continue
		}
		if isAmount(t, loc[0], loc[1]) {
			continue
		}
		hits = append(hits, dateHit{pos: loc[0], text: t[loc[0]:loc[1]]})
	}
	for _, loc := range monthNameDateExp.FindAllStringSubmatchIndex(t, -1) {
		if loc[0] > 0 && isDigit(t[loc[0]-1]) {
			continue
		}
		if !dates.IsMonthName(t[loc[4]:loc[5]]) {
			continue
		}
		hits = append(hits, dateHit{pos: loc[0], text: t[loc[0]:loc[1]]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	if len(hits) > 0 {
		from = &hits[0].text
	}
	if len(hits) > 1 {
		till = &hits[1].text
	}
	return from, till
}

// isAmount reports whether t[start:end] reads as money, as in "бюджет 1,5 тис".
func isAmount(t string, start, end int) bool {
	if strings.HasSuffix(strings.TrimRight(t[:start], " :-"), "бюджет") {
		return true
	}
	rest := strings.TrimLeft(t[end:], " ")
	if strings.HasPrefix(rest, "тис") {
		return true
	}
	for _, hints := range [][]string{usdHints, eurHints, uahHints} {
		for _, h := range hints {
			if strings.HasPrefix(rest, h) {
				return true
			}
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
