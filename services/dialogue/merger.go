// Package dialogue merges per-turn extractions into conversation state and
// decides which slot to ask for next.
package dialogue

import (
	"tourbot/models"
	"tourbot/services/places"
)

// Defaults are the static per-field fallbacks, the last step of every
// precedence list. A nil field has no default.
type Defaults struct {
	Adults     *int
	Children   *int
	BudgetFrom *int
	BudgetTo   *int
}

// StandardDefaults only defaults the child count: adults and budget are
// prompted for instead.
func StandardDefaults() Defaults {
	return Defaults{Children: models.IntPtr(0)}
}

// MergeInput is everything the merger looks at for one turn.
type MergeInput struct {
	Rule      models.ExtractedFields
	LLM       models.ExtractedFields
	Cached    models.Slots
	Countries *places.Table
	Cities    *places.Table
	Defaults  Defaults
}

// Merge resolves every slot by precedence: LLM, rule-based, fuzzy id from the
// LLM name, fuzzy id from the rule-based name, cached value, static default.
// It is pure.
func Merge(in MergeInput) models.CandidateSlots {
	var out models.CandidateSlots

	out.CountryID = pick(false,
		in.LLM.CountryID,
		in.Rule.CountryID,
		in.Countries.Lookup(in.LLM.CountryName),
		in.Countries.Lookup(in.Rule.CountryName),
		in.Cached.CountryID,
	)
	out.CountryName = displayName(in.Countries, out.CountryID,
		in.LLM.CountryName, in.Rule.CountryName, in.Cached.CountryName)

	out.FromCityID = pick(false,
		in.LLM.FromCityID,
		in.Rule.FromCityID,
		in.Cities.Lookup(in.LLM.FromCityName),
		in.Cities.Lookup(in.Rule.FromCityName),
		in.Cached.FromCityID,
	)
	out.FromCityName = displayName(in.Cities, out.FromCityID,
		in.LLM.FromCityName, in.Rule.FromCityName, in.Cached.FromCityName)

	out.Adults = pick(false, in.LLM.Adults, in.Rule.Adults, in.Cached.Adults, in.Defaults.Adults)
	// Zero children is a final answer, not "unknown".
	out.Children = pick(true, in.LLM.Children, in.Rule.Children, in.Cached.Children, in.Defaults.Children)
	out.ChildAges = pick(false, in.LLM.ChildAges, in.Rule.ChildAges, in.Cached.ChildAges)
	out.DateFrom = pick(false, in.LLM.DateFrom, in.Rule.DateFrom, in.Cached.DateFrom)
	out.DateTill = pick(false, in.LLM.DateTill, in.Rule.DateTill, in.Cached.DateTill)
	out.CurrencyHint = pick(false, in.LLM.CurrencyHint, in.Rule.CurrencyHint, in.Cached.CurrencyHint)
	out.BudgetFrom = pick(false, in.LLM.BudgetFrom, in.Rule.BudgetFrom, in.Cached.BudgetFrom, in.Defaults.BudgetFrom)
	out.BudgetTo = pick(false, in.LLM.BudgetTo, in.Rule.BudgetTo, in.Cached.BudgetTo, in.Defaults.BudgetTo)
	return out
}

// pick returns a copy of the first present value. Nil and the zero value are
// absent, except that zero counts when zeroMeaningful is set.
func pick[T comparable](zeroMeaningful bool, vals ...*T) *T {
	var zero T
	for _, v := range vals {
		if v == nil {
			continue
		}
		if *v == zero && !zeroMeaningful {
			continue
		}
		out := *v
		return &out
	}
	return nil
}

// displayName prefers the canonical table name of the resolved id and falls
// back to whatever name was supplied.
func displayName(table *places.Table, id *int, names ...*string) *string {
	if id != nil && table != nil {
		if name, ok := table.NameByID(*id); ok {
			return &name
		}
	}
	return pick(false, names...)
}
