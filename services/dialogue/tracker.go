package dialogue

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tourbot/config"
	"tourbot/models"
	"tourbot/services/dates"
	"tourbot/services/places"
)

// Stage is the slot the conversation is currently collecting.
type Stage string

const (
	StageCollectingCountry Stage = "COLLECTING_COUNTRY"
	StageCollectingCity    Stage = "COLLECTING_CITY"
	StageCollectingAdults  Stage = "COLLECTING_ADULTS"
	StageCollectingDate    Stage = "COLLECTING_DATE"
	StageCollectingBudget  Stage = "COLLECTING_BUDGET"
	StageReady             Stage = "READY"
)

// Slot names, also accepted by Reset's keep-list.
const (
	SlotCountry      = "country"
	SlotFromCity     = "from_city"
	SlotAdults       = "adults"
	SlotChildren     = "children"
	SlotChildAges    = "child_ages"
	SlotDateFrom     = "date_from"
	SlotDateTill     = "date_till"
	SlotCurrencyHint = "currency_hint"
	SlotBudget       = "budget"
)

// MissingSlotError halts a turn until the user supplies Slot.
type MissingSlotError struct {
	Slot  string
	Stage Stage
}

func (e *MissingSlotError) Error() string {
	return fmt.Sprintf("missing required slot %q", e.Slot)
}

// DateError reports a date slot that could not be normalized.
type DateError struct {
	Slot string
	Err  error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Slot, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }

// Turn summarizes what Apply did to a state.
type Turn struct {
	Supplied  bool
	PageReset bool
	Hash      string
}

// Tracker owns the slot-filling rules. It holds no per-conversation data.
type Tracker struct {
	Countries *places.Table
	Cities    *places.Table
	Defaults  Defaults
	Search    config.Defaults
	Now       func() time.Time
}

// NewTracker returns a tracker using the standard merge defaults.
func NewTracker(countries, cities *places.Table, search config.Defaults) *Tracker {
	return &Tracker{
		Countries: countries,
		Cities:    cities,
		Defaults:  StandardDefaults(),
		Search:    search,
		Now:       time.Now,
	}
}

// Apply merges one turn's extractions into st. On a *DateError st may be
// partially modified and must be discarded by the caller.
func (t *Tracker) Apply(st *models.ConversationState, rule, llm models.ExtractedFields, text string) (Turn, error) {
	candidate := Merge(MergeInput{
		Rule:      rule,
		LLM:       llm,
		Cached:    st.Slots,
		Countries: t.Countries,
		Cities:    t.Cities,
		Defaults:  t.Defaults,
	})

	now := t.now()
	if candidate.DateFrom != nil {
		d, err := dates.Normalize(*candidate.DateFrom, now)
		if err != nil {
			return Turn{}, &DateError{Slot: SlotDateFrom, Err: err}
		}
		candidate.DateFrom = &d
	}
	if candidate.DateTill != nil {
		d, err := dates.Normalize(*candidate.DateTill, now)
		if err != nil {
			return Turn{}, &DateError{Slot: SlotDateTill, Err: err}
		}
		candidate.DateTill = &d
	}

	MergeInto(&st.Slots, candidate)
	st.LastUserText = text
	st.UpdatedAt = now

	turn := Turn{Supplied: SuppliedAny(rule, llm)}
	turn.Hash = Fingerprint(st.Slots, t.Search)
	if turn.Supplied && st.QueryHash != "" && st.QueryHash != turn.Hash {
		st.Page = 1
		turn.PageReset = true
	}
	st.QueryHash = turn.Hash
	return turn, nil
}

// Next scans the required slots in order. It returns StageReady and a nil
// error once the state is searchable, or the collecting stage together with
// a *MissingSlotError. An absent child count is set to zero without asking.
func (t *Tracker) Next(st *models.ConversationState) (Stage, error) {
	s := &st.Slots
	if s.CountryID == nil || *s.CountryID == 0 {
		return missing(SlotCountry, StageCollectingCountry)
	}
	if s.FromCityID == nil || *s.FromCityID == 0 {
		st.AwaitingFromCity = true
		return missing(SlotFromCity, StageCollectingCity)
	}
	if s.Adults == nil {
		return missing(SlotAdults, StageCollectingAdults)
	}
	if s.Children == nil {
		s.Children = models.IntPtr(0)
	}
	if s.DateFrom == nil || *s.DateFrom == "" {
		return missing(SlotDateFrom, StageCollectingDate)
	}
	if s.BudgetFrom == nil && s.BudgetTo == nil {
		return missing(SlotBudget, StageCollectingBudget)
	}
	return StageReady, nil
}

func missing(slot string, stage Stage) (Stage, error) {
	return stage, &MissingSlotError{Slot: slot, Stage: stage}
}

func (t *Tracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// MergeInto copies every present candidate value into slots. Absent values
// never erase what is already there.
func MergeInto(slots *models.Slots, c models.CandidateSlots) {
	setInt(&slots.CountryID, c.CountryID)
	setString(&slots.CountryName, c.CountryName)
	setInt(&slots.FromCityID, c.FromCityID)
	setString(&slots.FromCityName, c.FromCityName)
	setInt(&slots.Adults, c.Adults)
	setInt(&slots.Children, c.Children)
	setString(&slots.ChildAges, c.ChildAges)
	setString(&slots.DateFrom, c.DateFrom)
	setString(&slots.DateTill, c.DateTill)
	setString(&slots.CurrencyHint, c.CurrencyHint)
	setInt(&slots.BudgetFrom, c.BudgetFrom)
	setInt(&slots.BudgetTo, c.BudgetTo)
}

func setInt(dst **int, v *int) {
	if v != nil {
		n := *v
		*dst = &n
	}
}

func setString(dst **string, v *string) {
	if v != nil {
		s := *v
		*dst = &s
	}
}

// SuppliedAny reports whether the turn carried an opinion on any
// search-defining slot. A bare currency hint does not count.
func SuppliedAny(rule, llm models.ExtractedFields) bool {
	for _, f := range []models.ExtractedFields{rule, llm} {
		switch {
		case present(f.CountryName), f.CountryID != nil && *f.CountryID != 0:
			return true
		case present(f.FromCityName), f.FromCityID != nil && *f.FromCityID != 0:
			return true
		case present(f.DateFrom):
			return true
		case f.BudgetFrom != nil, f.BudgetTo != nil:
			return true
		case f.Adults != nil, f.Children != nil:
			return true
		}
	}
	return false
}

func present(s *string) bool { return s != nil && *s != "" }

// Fingerprint hashes the search-defining slots together with the fixed night
// range and hotel rating. Zero and absent values hash alike.
func Fingerprint(s models.Slots, d config.Defaults) string {
	key := strings.Join([]string{
		intKey(s.CountryID),
		intKey(s.FromCityID),
		intKey(s.Adults),
		intKey(s.Children),
		stringKey(s.DateFrom),
		stringKey(s.DateTill),
		intKey(s.BudgetFrom),
		intKey(s.BudgetTo),
		stringKey(s.CurrencyHint),
		strconv.Itoa(d.NightFrom),
		strconv.Itoa(d.NightTill),
		d.HotelRating,
	}, "|")
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func intKey(v *int) string {
	if v == nil || *v == 0 {
		return ""
	}
	return strconv.Itoa(*v)
}

func stringKey(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Reset returns a fresh state for the same conversation, carrying over only
// the slots named in keep.
func Reset(st *models.ConversationState, keep ...string) *models.ConversationState {
	fresh := models.NewConversationState(st.ConversationID)
	old := st.Slots
	for _, name := range keep {
		switch name {
		case SlotCountry:
			fresh.Slots.CountryID, fresh.Slots.CountryName = old.CountryID, old.CountryName
		case SlotFromCity:
			fresh.Slots.FromCityID, fresh.Slots.FromCityName = old.FromCityID, old.FromCityName
		case SlotAdults:
			fresh.Slots.Adults = old.Adults
		case SlotChildren:
			fresh.Slots.Children = old.Children
		case SlotChildAges:
			fresh.Slots.ChildAges = old.ChildAges
		case SlotDateFrom:
			fresh.Slots.DateFrom = old.DateFrom
		case SlotDateTill:
			fresh.Slots.DateTill = old.DateTill
		case SlotCurrencyHint:
			fresh.Slots.CurrencyHint = old.CurrencyHint
		case SlotBudget:
			fresh.Slots.BudgetFrom, fresh.Slots.BudgetTo = old.BudgetFrom, old.BudgetTo
		}
	}
	fresh.Slots = fresh.Slots.Clone()
	fresh.UpdatedAt = time.Now()
	return fresh
}
