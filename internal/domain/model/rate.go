package model

import (
	"encoding/json"
	"fmt"
	"time"

	"rate-history-service/pkg/utils"
)

// DateKey is a calendar date canonicalized to "YYYY-MM-DD" in UTC. The rates
// API is addressed by this string, so it is always derived from UTC fields to
// avoid local-timezone day shifts.
type DateKey string

func NewDateKey(date time.Time) DateKey {
	return DateKey(utils.FormatDate(date))
}

func (d DateKey) String() string {
	return string(d)
}

// DateWindow converts the trailing n-day window ending at reference into
// ascending date keys.
func DateWindow(reference time.Time, n int) []DateKey {
	days := utils.LastNDays(reference, n)
	keys := make([]DateKey, 0, len(days))

	for _, day := range days {
		keys = append(keys, NewDateKey(day))
	}

	return keys
}

// RateSnapshot is the outcome of querying one date for one base currency:
// either a code→rate mapping, or an explicit marker that the API published
// nothing for that date. Unavailable is distinct from a mapping that merely
// lacks some codes.
type RateSnapshot struct {
	BaseCurrency Currency             `json:"base_currency"`
	Date         DateKey              `json:"date"`
	Rates        map[Currency]float64 `json:"rates,omitempty"`
	Unavailable  bool                 `json:"unavailable,omitempty"`
	FetchedAt    time.Time            `json:"fetched_at"`
}

func NewRateSnapshot(base Currency, date DateKey, rates map[Currency]float64) *RateSnapshot {
	return &RateSnapshot{
		BaseCurrency: base.Normalize(),
		Date:         date,
		Rates:        rates,
		FetchedAt:    time.Now(),
	}
}

func NewUnavailableSnapshot(base Currency, date DateKey) *RateSnapshot {
	return &RateSnapshot{
		BaseCurrency: base.Normalize(),
		Date:         date,
		Unavailable:  true,
		FetchedAt:    time.Now(),
	}
}

// LookUp returns the rate for target, matching case-insensitively. The second
// return is false when the snapshot is unavailable or the code is absent.
func (s *RateSnapshot) LookUp(target Currency) (float64, bool) {
	if s == nil || s.Unavailable {
		return 0, false
	}

	if rate, ok := s.Rates[Currency(target.Lower())]; ok {
		return rate, true
	}
	rate, ok := s.Rates[target.Normalize()]
	return rate, ok
}

// RateCell is one table cell: a known rate or the N/A sentinel. It marshals
// to the raw number, or to the string "N/A" when no rate is known.
type RateCell struct {
	Value float64
	Known bool
}

func KnownRate(value float64) RateCell {
	return RateCell{Value: value, Known: true}
}

func (c RateCell) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return json.Marshal("N/A")
	}
	return json.Marshal(c.Value)
}

func (c *RateCell) UnmarshalJSON(data []byte) error {
	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		*c = RateCell{Value: value, Known: true}
		return nil
	}

	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err != nil {
		return fmt.Errorf("rate cell is neither a number nor a sentinel: %w", err)
	}
	*c = RateCell{}
	return nil
}

// RateRow is one target currency's rates across the queried window. ID is
// synthesized from the currency and its request position so it stays unique
// even if a code is repeated in the input.
type RateRow struct {
	ID       string               `json:"id"`
	Currency Currency             `json:"currency"`
	Rates    map[DateKey]RateCell `json:"rates"`
}

// RateTable is the reconciled result of one aggregation run: one dense row
// per requested target currency, in request order. A table with zero rows
// means no data was published for the entire window. Tables are rebuilt
// whole on every query.
type RateTable struct {
	BaseCurrency Currency  `json:"base_currency"`
	Dates        []DateKey `json:"dates"`
	Rows         []RateRow `json:"rows"`
}

// QueryState is the full input of one aggregation run.
type QueryState struct {
	BaseCurrency     Currency
	TargetCurrencies []Currency
	ReferenceDate    time.Time
}

// QueryResult is what the presentation layer observes.
type QueryResult struct {
	Rows      []RateRow `json:"rows"`
	IsLoading bool      `json:"is_loading"`
	Error     string    `json:"error,omitempty"`
}
