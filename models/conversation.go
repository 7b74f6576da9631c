package models

import "time"

// Slots holds the persisted search parameters of one conversation.
type Slots struct {
	CountryID    *int    `json:"countryId,omitempty"`
	CountryName  *string `json:"countryName,omitempty"`
	FromCityID   *int    `json:"fromCityId,omitempty"`
	FromCityName *string `json:"fromCityName,omitempty"`
	Adults       *int    `json:"adults,omitempty"`
	Children     *int    `json:"children,omitempty"`
	ChildAges    *string `json:"childAges,omitempty"`
	DateFrom     *string `json:"dateFrom,omitempty"`
	DateTill     *string `json:"dateTill,omitempty"`
	CurrencyHint *string `json:"currencyHint,omitempty"`
	BudgetFrom   *int    `json:"budgetFrom,omitempty"`
	BudgetTo     *int    `json:"budgetTo,omitempty"`
}

// ConversationState is the per-conversation slot-filling state.
type ConversationState struct {
	ConversationID   string    `json:"conversationId"`
	Slots            Slots     `json:"slots"`
	AwaitingFromCity bool      `json:"awaitingFromCity"`
	Page             int       `json:"page"`
	LastUserText     string    `json:"lastUserText,omitempty"`
	QueryHash        string    `json:"queryHash,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewConversationState returns a fresh state positioned on the first page.
func NewConversationState(id string) *ConversationState {
	return &ConversationState{ConversationID: id, Page: 1}
}

// Clone returns a deep copy so that a turn can be discarded without side effects.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Slots = s.Slots.Clone()
	return &out
}

// Clone returns a deep copy of the slots.
func (s Slots) Clone() Slots {
	return Slots{
		CountryID:    cloneInt(s.CountryID),
		CountryName:  cloneString(s.CountryName),
		FromCityID:   cloneInt(s.FromCityID),
		FromCityName: cloneString(s.FromCityName),
		Adults:       cloneInt(s.Adults),
		Children:     cloneInt(s.Children),
		ChildAges:    cloneString(s.ChildAges),
		DateFrom:     cloneString(s.DateFrom),
		DateTill:     cloneString(s.DateTill),
		CurrencyHint: cloneString(s.CurrencyHint),
		BudgetFrom:   cloneInt(s.BudgetFrom),
		BudgetTo:     cloneInt(s.BudgetTo),
	}
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
