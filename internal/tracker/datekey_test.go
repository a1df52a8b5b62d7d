package tracker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKeyOf_NoZeroPadding(t *testing.T) {
	assert.Equal(t, DateKey("2024-3-5"), DateKeyOf(time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, DateKey("2024-12-25"), DateKeyOf(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, DateKey("987-1-1"), DateKeyOf(time.Date(987, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateKeyOf_UsesTimeLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	utc := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, DateKey("2024-3-1"), DateKeyOf(utc))
	assert.Equal(t, DateKey("2024-3-2"), DateKeyOf(utc.In(tokyo)))
}

func TestYesterdayOf(t *testing.T) {
	tests := []struct {
		now  time.Time
		want DateKey
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-2-29"},
		{time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC), "2023-2-28"},
		{time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC), "2024-12-31"},
		{time.Date(2024, 7, 15, 23, 59, 59, 0, time.UTC), "2024-7-14"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, YesterdayOf(tt.now), tt.now.String())
	}
}

func TestYesterdayOf_DSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Belgrade")
	if err != nil {
		t.Skipf("tz database not available: %s", err)
	}
	// day after the spring-forward night is only 23h long
	now := time.Date(2024, 3, 31, 0, 30, 0, 0, loc)
	assert.Equal(t, DateKey("2024-3-30"), YesterdayOf(now))
}

func TestParseDateKey(t *testing.T) {
	parsed, err := ParseDateKey("2024-3-5")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), parsed)

	for _, invalid := range []string{
		"",
		"2024-03-05",
		"2024-3",
		"2024-3-5-1",
		"2024-13-1",
		"2023-2-29",
		"2024-x-1",
		"2024-3-05",
	} {
		_, err := ParseDateKey(invalid)
		assert.ErrorIs(t, err, ErrInvalidDateKey, invalid)
	}
}

func TestDateKey_JSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		A DateKey `json:"a"`
		B DateKey `json:"b"`
	}{A: "2024-3-5"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-3-5","b":null}`, string(payload))

	var decoded struct {
		A DateKey `json:"a"`
		B DateKey `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2024-3-5","b":null}`), &decoded))
	assert.Equal(t, DateKey("2024-3-5"), decoded.A)
	assert.True(t, decoded.B.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"a":12}`), &decoded))
}
