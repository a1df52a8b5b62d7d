package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/dailyfit/internal/kvstore"
	"github.com/2beens/dailyfit/internal/telemetry/metrics"
	"github.com/2beens/dailyfit/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// State is a consistent, detached copy of the tracker state.
type State struct {
	Exercises          []Exercise        `json:"exercises"`
	Streak             int               `json:"streak"`
	LastCompletionDate DateKey           `json:"lastCompletionDate"`
	CompletionHistory  []DailyCompletion `json:"completionHistory"`
	Loading            bool              `json:"loading"`
}

// Store owns the tracker state. All mutations run to completion under the store
// mutex, and every mutation hands a full snapshot to the persister, which writes
// it in the background.
type Store struct {
	mutex              sync.RWMutex
	exercises          []Exercise
	streak             int
	lastCompletionDate DateKey
	completionHistory  []DailyCompletion
	// the day the completion flags belong to
	openDate DateKey
	loading  bool

	catalog    []Exercise
	kv         kvstore.Store
	storageKey string
	persister  *Persister
	now        Clock
	metrics    *metrics.Manager
}

type NewStoreParams struct {
	KV         kvstore.Store
	StorageKey string
	// Catalog defaults to DefaultCatalog.
	Catalog []Exercise
	// Clock defaults to time.Now.
	Clock   Clock
	Metrics *metrics.Manager
}

func NewStore(params NewStoreParams) *Store {
	catalog := params.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	catalog = cloneExercises(catalog)
	clearCompleted(catalog)

	now := params.Clock
	if now == nil {
		now = time.Now
	}

	return &Store{
		exercises:         cloneExercises(catalog),
		completionHistory: []DailyCompletion{},
		loading:           true,
		catalog:           catalog,
		kv:                params.KV,
		storageKey:        params.StorageKey,
		persister:         NewPersister(params.KV, params.StorageKey, params.Metrics),
		now:               now,
		metrics:           params.Metrics,
	}
}

// Load restores the last persisted snapshot. Without one, or when it cannot be read,
// the store keeps the built-in defaults. If the snapshot was saved on another day,
// the completion flags start cleared; streak, last completion date and history are
// kept as they were.
func (s *Store) Load(ctx context.Context) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.store.load")
	defer span.End()
	span.SetAttributes(attribute.String("key", s.storageKey))

	snapshot, err := s.readSnapshot(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	today := DateKeyOf(now)

	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		log.Infof("no tracker snapshot found under [%s], starting with defaults", s.storageKey)
		s.resetToDefaultsLocked(today)
	case err != nil:
		log.Errorf("load tracker snapshot [%s], falling back to defaults: %s", s.storageKey, err)
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.CounterSnapshotLoadFailures.Inc()
		}
		s.resetToDefaultsLocked(today)
	default:
		s.exercises = cloneExercises(snapshot.Exercises)
		if snapshot.LastOpenDate != today {
			log.Debugf("new day [%s] since last open [%s], clearing completions", today, snapshot.LastOpenDate)
			clearCompleted(s.exercises)
		}
		s.streak = snapshot.Streak
		s.lastCompletionDate = snapshot.LastCompletionDate
		s.completionHistory = cloneHistory(snapshot.CompletionHistory)
		s.openDate = today
		log.Debugf("tracker snapshot loaded: %d exercises, streak %d", len(s.exercises), s.streak)
	}

	s.loading = false
	s.updateStreakGauge()
}

func (s *Store) readSnapshot(ctx context.Context) (Snapshot, error) {
	raw, err := s.kv.Get(ctx, s.storageKey)
	if err != nil {
		return Snapshot{}, err
	}
	return DecodeSnapshot([]byte(raw))
}

func (s *Store) resetToDefaultsLocked(today DateKey) {
	s.exercises = cloneExercises(s.catalog)
	s.streak = 0
	s.lastCompletionDate = ""
	s.completionHistory = []DailyCompletion{}
	s.openDate = today
}

// ToggleExercise flips the completion of the exercise with the given id and,
// when that completes the whole list, seals the day. Unknown ids are ignored
// (false is returned, nothing is persisted).
func (s *Store) ToggleExercise(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		log.Debugf("toggle exercise: unknown id [%s], ignoring", id)
		return false
	}

	s.exercises[idx].Completed = !s.exercises[idx].Completed

	now := s.now()
	if s.sealDayLocked(now) {
		log.Infof("day [%s] sealed, streak: %d", s.lastCompletionDate, s.streak)
		if s.metrics != nil {
			s.metrics.CounterDaysSealed.Inc()
		}
		s.updateStreakGauge()
	}
	if s.metrics != nil {
		s.metrics.CounterExerciseToggles.Inc()
	}

	s.persistLocked(now)
	return true
}

// sealDayLocked runs the day-seal transition, at most once per calendar day.
// Un-completing exercises afterwards does not undo it.
func (s *Store) sealDayLocked(now time.Time) bool {
	if !allCompleted(s.exercises) {
		return false
	}

	today := DateKeyOf(now)
	if s.lastCompletionDate == today {
		return false
	}

	if s.lastCompletionDate == YesterdayOf(now) {
		s.streak++
	} else {
		s.streak = 1
	}
	s.lastCompletionDate = today

	done := completedCount(s.exercises)
	for i := range s.completionHistory {
		if s.completionHistory[i].Date == today {
			s.completionHistory[i].Completed = done
			return true
		}
	}
	s.completionHistory = append(s.completionHistory, DailyCompletion{
		Date:      today,
		Completed: done,
		Total:     len(s.exercises),
	})

	return true
}

// ResetDaily clears all completion flags. Streak and history are left alone.
func (s *Store) ResetDaily() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clearCompleted(s.exercises)
	if s.metrics != nil {
		s.metrics.CounterDailyResets.Inc()
	}

	s.persistLocked(s.now())
}

// Rollover applies the day-boundary rule for a process that keeps running past
// midnight: when the calendar day changed since the state was loaded, the
// completion flags are cleared and the state persisted. Returns true if that happened.
func (s *Store) Rollover() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.loading {
		return false
	}

	now := s.now()
	today := DateKeyOf(now)
	if s.openDate == today {
		return false
	}

	log.Infof("day rollover [%s] -> [%s], clearing completions", s.openDate, today)
	clearCompleted(s.exercises)
	s.openDate = today
	if s.metrics != nil {
		s.metrics.CounterDayRollovers.Inc()
	}

	s.persistLocked(now)
	return true
}

// persistLocked must be called with the mutex held, so snapshots reach the
// persister in the same order the mutations happened.
func (s *Store) persistLocked(now time.Time) {
	payload, err := EncodeSnapshot(Snapshot{
		Exercises:          s.exercises,
		Streak:             s.streak,
		LastCompletionDate: s.lastCompletionDate,
		CompletionHistory:  s.completionHistory,
		LastOpenDate:       DateKeyOf(now),
	})
	if err != nil {
		log.Errorf("encode tracker snapshot: %s", err)
		return
	}
	s.persister.Submit(payload)
}

func (s *Store) indexOfLocked(id string) int {
	for i := range s.exercises {
		if s.exercises[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) updateStreakGauge() {
	if s.metrics != nil {
		s.metrics.GaugeStreak.Set(float64(s.streak))
	}
}

func (s *Store) State() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return State{
		Exercises:          cloneExercises(s.exercises),
		Streak:             s.streak,
		LastCompletionDate: s.lastCompletionDate,
		CompletionHistory:  cloneHistory(s.completionHistory),
		Loading:            s.loading,
	}
}

func (s *Store) IsLoading() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.loading
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Flush waits for the last submitted snapshot to be written.
func (s *Store) Flush() {
	s.persister.Flush()
}

// Close flushes and stops the background persistence.
func (s *Store) Close() {
	s.persister.Close()
}
