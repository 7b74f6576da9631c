package ittour

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tourbot/config"
	"tourbot/models"
	"tourbot/services/dates"
)

// MaxRangeDays bounds the departure window.
const MaxRangeDays = 12

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"country":      "Потрібна країна 🌍 Напишіть країну (наприклад: Єгипет).",
	"from_city":    "Потрібне місто вильоту ✈️ Оберіть зі списку.",
	"adult_amount": "Кількість дорослих має бути 1..4 👤 Напишіть, будь ласка, скільки дорослих.",
	"child_age":    "Вкажіть вік дітей, наприклад: 2 дітей 7 і 4 років.",
	"night_from":   "Некоректна тривалість туру (1..30 ночей).",
	"night_till":   "Некоректна тривалість туру (1..30 ночей).",
	"date_till":    "Дата повернення раніше за дату вильоту 🗓️ Вкажіть дати ще раз.",
}

// BuildQuery turns conversation slots into a validated search query. Missing
// dates default to a window starting two days after today.
func BuildQuery(slots models.Slots, page int, d config.Defaults, today time.Time) (models.SearchQuery, error) {
	dateFrom := today.AddDate(0, 0, 2)
	if slots.DateFrom != nil && *slots.DateFrom != "" {
		t, err := dates.Parse(*slots.DateFrom)
		if err != nil {
			return models.SearchQuery{}, fmt.Errorf("date_from: %w", err)
		}
		dateFrom = t
	}
	dateTill := dateFrom.AddDate(0, 0, MaxRangeDays)
	if slots.DateTill != nil && *slots.DateTill != "" {
		t, err := dates.Parse(*slots.DateTill)
		if err != nil {
			return models.SearchQuery{}, fmt.Errorf("date_till: %w", err)
		}
		dateTill = t
	}
	if dateTill.Before(dateFrom) {
		return models.SearchQuery{}, &QueryError{Field: "date_till", Message: fieldMessages["date_till"]}
	}
	if limit := dateFrom.AddDate(0, 0, MaxRangeDays); dateTill.After(limit) {
		dateTill = limit
	}

	q := models.SearchQuery{
		Type:         d.Type,
		Kind:         d.Kind,
		Country:      deref(slots.CountryID, 0),
		FromCity:     deref(slots.FromCityID, 0),
		HotelRating:  d.HotelRating,
		AdultAmount:  deref(slots.Adults, d.AdultAmount),
		ChildAmount:  deref(slots.Children, d.ChildAmount),
		NightFrom:    d.NightFrom,
		NightTill:    d.NightTill,
		DateFrom:     dateFrom.Format(dates.Layout),
		DateTill:     dateTill.Format(dates.Layout),
		Currency:     d.Currency,
		ItemsPerPage: d.ItemsPerPage,
		PriceFrom:    copyInt(slots.BudgetFrom),
		PriceTill:    copyInt(slots.BudgetTo),
		Page:         max(page, 1),
	}
	if slots.ChildAges != nil {
		q.ChildAge = *slots.ChildAges
	}
	if slots.CurrencyHint != nil {
		q.Currency = models.CurrencyIDForHint(*slots.CurrencyHint, d.Currency)
	}

	if err := Validate(q); err != nil {
		return models.SearchQuery{}, err
	}
	return q, nil
}

// Validate checks q and reports the first failing field as a *QueryError.
func Validate(q models.SearchQuery) error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	field := verrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = fmt.Sprintf("Поле %s є обов'язковим. Будь ласка, доповніть дані.", field)
	}
	return &QueryError{Field: field, Message: msg}
}

func deref(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
