package tracker

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrInvalidSnapshot = errors.New("invalid tracker snapshot")

// Snapshot is the complete persisted tracker state, stored as one JSON record.
type Snapshot struct {
	Exercises          []Exercise        `json:"exercises"`
	Streak             int               `json:"streak"`
	LastCompletionDate DateKey           `json:"lastCompletionDate"`
	CompletionHistory  []DailyCompletion `json:"completionHistory"`
	LastOpenDate       DateKey           `json:"lastOpenDate"`
}

func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	if snapshot.Exercises == nil {
		snapshot.Exercises = []Exercise{}
	}
	if snapshot.CompletionHistory == nil {
		snapshot.CompletionHistory = []DailyCompletion{}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return payload, nil
}

// DecodeSnapshot parses and validates a persisted snapshot.
// Missing optional fields decode to their zero values (no streak, no history).
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}
	if snapshot.CompletionHistory == nil {
		snapshot.CompletionHistory = []DailyCompletion{}
	}
	return snapshot, nil
}

func (s Snapshot) Validate() error {
	var errs error

	if s.Exercises == nil {
		errs = multierr.Append(errs, errors.New("exercises missing"))
	}
	seenIDs := make(map[string]bool, len(s.Exercises))
	for i, e := range s.Exercises {
		if e.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("exercise #%d: empty id", i))
		} else if seenIDs[e.ID] {
			errs = multierr.Append(errs, fmt.Errorf("exercise #%d: duplicate id %q", i, e.ID))
		}
		seenIDs[e.ID] = true
		if !e.Category.IsValid() {
			errs = multierr.Append(errs, fmt.Errorf("exercise %q: invalid category %q", e.ID, e.Category))
		}
		if e.Reps < 0 || e.Sets < 0 {
			errs = multierr.Append(errs, fmt.Errorf("exercise %q: negative reps/sets", e.ID))
		}
	}

	if s.Streak < 0 {
		errs = multierr.Append(errs, fmt.Errorf("negative streak: %d", s.Streak))
	}
	if !s.LastCompletionDate.IsZero() {
		if err := s.LastCompletionDate.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("last completion date: %w", err))
		}
	}
	if !s.LastOpenDate.IsZero() {
		if err := s.LastOpenDate.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("last open date: %w", err))
		}
	}

	seenDates := make(map[DateKey]bool, len(s.CompletionHistory))
	for i, entry := range s.CompletionHistory {
		if err := entry.Date.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("history #%d: %w", i, err))
		} else if seenDates[entry.Date] {
			errs = multierr.Append(errs, fmt.Errorf("history #%d: duplicate date %s", i, entry.Date))
		}
		seenDates[entry.Date] = true
		if entry.Completed < 0 || entry.Completed > entry.Total {
			errs = multierr.Append(errs, fmt.Errorf("history %s: completed %d out of range [0, %d]", entry.Date, entry.Completed, entry.Total))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errs)
	}
	return nil
}
