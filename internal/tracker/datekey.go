package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDateKey = errors.New("invalid date key")

// DateKey is a calendar day formatted as year-month-day without zero padding (2024-3-5).
// Keys are only ever compared as strings. The empty key means "no date" and is
// encoded as JSON null.
type DateKey string

// Clock returns the current time; the calendar day is taken in the returned time's location.
type Clock func() time.Time

func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey(fmt.Sprintf("%d-%d-%d", y, int(m), d))
}

// YesterdayOf returns the key of the calendar day before t.
func YesterdayOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKeyOf(time.Date(y, m, d-1, 12, 0, 0, 0, t.Location()))
}

// ParseDateKey parses the key into a UTC midnight time.
// Anything that would not format back to the exact same key is rejected (e.g. 2024-03-05).
func ParseDateKey(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
		}
		nums[i] = n
	}

	t := time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC)
	if DateKeyOf(t) != DateKey(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
	}
	return t, nil
}

func (k DateKey) String() string {
	return string(k)
}

func (k DateKey) IsZero() bool {
	return k == ""
}

func (k DateKey) Validate() error {
	_, err := ParseDateKey(string(k))
	return err
}

func (k DateKey) MarshalJSON() ([]byte, error) {
	if k.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(k))
}

func (k *DateKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date key: %w", err)
	}
	*k = DateKey(s)
	return nil
}
