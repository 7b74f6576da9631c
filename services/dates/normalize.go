// Package dates turns the date spellings users type into the DD.MM.YY form
// expected by the search API.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported date format")
	ErrUnknownMonth      = errors.New("unknown month name")
)

// Layout is the canonical output layout.
const Layout = "02.01.06"

// Genitive and nominative Ukrainian month names.
var monthNames = map[string]time.Month{
	"січня": time.January, "лютого": time.February, "березня": time.March,
	"квітня": time.April, "травня": time.May, "червня": time.June,
	"липня": time.July, "серпня": time.August, "вересня": time.September,
	"жовтня": time.October, "листопада": time.November, "грудня": time.December,

	"січень": time.January, "лютий": time.February, "березень": time.March,
	"квітень": time.April, "травень": time.May, "червень": time.June,
	"липень": time.July, "серпень": time.August, "вересень": time.September,
	"жовтень": time.October, "листопад": time.November, "грудень": time.December,
}

var (
	spaces       = regexp.MustCompile(`\s+`)
	monthPattern = regexp.MustCompile(`^(\d{1,2}) (\p{L}+)(?: (\d{2}|\d{4}))?$`)
	separators   = strings.NewReplacer(",", ".", "/", ".", "-", ".")
	dayMonth     = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})$`)
	dayMonthYY   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2})$`)
	dayMonthYYYY = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
)

// IsMonthName reports whether word is a known month name.
func IsMonthName(word string) bool {
	_, ok := monthNames[strings.ToLower(word)]
	return ok
}

// Normalize parses s and returns it as DD.MM.YY. When the year is omitted the
// year of now is used, rolled forward by one if the date already passed.
// A zero now means time.Now().
func Normalize(s string, now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now()
	}
	raw := s
	s = spaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsupportedFormat)
	}

	if m := monthPattern.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[m[2]]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownMonth, m[2])
		}
		day, _ := strconv.Atoi(m[1])
		if m[3] == "" {
			return inferYear(raw, day, month, now)
		}
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return format(raw, day, month, year)
	}

	compact := strings.ReplaceAll(separators.Replace(s), " ", "")

	if m := dayMonth.FindStringSubmatch(compact); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if month < 1 || month > 12 {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
		}
		return inferYear(raw, day, time.Month(month), now)
	}
	if m := dayMonthYY.FindStringSubmatch(compact); m != nil {
		return formatMonth(raw, atoi(m[1]), atoi(m[2]), 2000+atoi(m[3]))
	}
	if m := dayMonthYYYY.FindStringSubmatch(compact); m != nil {
		return formatMonth(raw, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

// Parse reads a canonical DD.MM.YY string.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return t, nil
}

func inferYear(raw string, day int, month time.Month, now time.Time) (string, error) {
	year := now.Year()
	if !valid(day, month, year) {
		// 29 February in a non-leap year may still be valid next year.
		if !valid(day, month, year+1) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
		}
		year++
		return format(raw, day, month, year)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Before(today) {
		year++
	}
	return format(raw, day, month, year)
}

func formatMonth(raw string, day, month, year int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
	return format(raw, day, time.Month(month), year)
}

func format(raw string, day int, month time.Month, year int) (string, error) {
	if !valid(day, month, year) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
	return fmt.Sprintf("%02d.%02d.%02d", day, int(month), year%100), nil
}

func valid(day int, month time.Month, year int) bool {
	if day < 1 || month < time.January || month > time.December {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && t.Month() == month
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
