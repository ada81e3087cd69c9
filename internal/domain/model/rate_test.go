package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateWindow(t *testing.T) {
	reference := time.Date(2025, time.November, 4, 0, 0, 0, 0, time.UTC)

	window := DateWindow(reference, 7)

	require.Len(t, window, 7)
	assert.Equal(t, DateKey("2025-10-29"), window[0])
	assert.Equal(t, DateKey("2025-11-04"), window[6])
}

func TestRateSnapshot_LookUp(t *testing.T) {
	snapshot := NewRateSnapshot("GBP", "2025-11-04", map[Currency]float64{
		"usd": 1.25,
	})

	rate, ok := snapshot.LookUp("USD")
	require.True(t, ok)
	assert.Equal(t, 1.25, rate)

	_, ok = snapshot.LookUp("EUR")
	assert.False(t, ok)
}

func TestRateSnapshot_LookUpUnavailable(t *testing.T) {
	snapshot := NewUnavailableSnapshot("GBP", "2025-11-04")

	_, ok := snapshot.LookUp("USD")
	assert.False(t, ok)
	assert.True(t, snapshot.Unavailable)
}

func TestRateCell_MarshalJSON(t *testing.T) {
	known, err := json.Marshal(KnownRate(1.25))
	require.NoError(t, err)
	assert.Equal(t, "1.25", string(known))

	sentinel, err := json.Marshal(RateCell{})
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(sentinel))
}

func TestRateCell_UnmarshalJSON(t *testing.T) {
	var cell RateCell
	require.NoError(t, json.Unmarshal([]byte("130.5"), &cell))
	assert.True(t, cell.Known)
	assert.Equal(t, 130.5, cell.Value)

	require.NoError(t, json.Unmarshal([]byte(`"N/A"`), &cell))
	assert.False(t, cell.Known)

	assert.Error(t, json.Unmarshal([]byte("{}"), &cell))
}

func TestCurrency_IsValid(t *testing.T) {
	assert.True(t, Currency("USD").IsValid())
	assert.True(t, Currency("usd").IsValid())
	assert.False(t, Currency("").IsValid())
	assert.False(t, Currency("US").IsValid())
	assert.False(t, Currency("DOLLAR").IsValid())
	assert.False(t, Currency("U5D").IsValid())
}

func TestCurrency_Forms(t *testing.T) {
	assert.Equal(t, Currency("USD"), Currency("usd").Normalize())
	assert.Equal(t, "usd", Currency("USD").Lower())
}

func TestParseCurrencyList(t *testing.T) {
	assert.Equal(t,
		[]Currency{"USD", "EUR", "JPY"},
		ParseCurrencyList("usd, EUR ,jpy,"))
	assert.Empty(t, ParseCurrencyList(""))
}
