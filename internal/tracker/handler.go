package tracker

import (
	"net/http"
	"time"

	"github.com/2beens/dailyfit/internal/telemetry/tracing"
	"github.com/2beens/dailyfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type trackerService interface {
	ToggleExercise(id string) bool
	ResetDaily()
	State() State
	IsLoading() bool
	Now() time.Time
}

type Handler struct {
	store trackerService
}

func NewHandler(store trackerService) *Handler {
	return &Handler{
		store: store,
	}
}

type StateResponse struct {
	State
	CompletionRatio float64 `json:"completionRatio"`
}

type HistoryResponse struct {
	CompletionHistory  []DailyCompletion `json:"completionHistory"`
	Streak             int               `json:"streak"`
	LastCompletionDate DateKey           `json:"lastCompletionDate"`
}

type StatsResponse struct {
	Summary    ProgressSummary `json:"summary"`
	Categories []CategoryShare `json:"categories"`
	Week       []DayProgress   `json:"week"`
}

func newStateResponse(state State) StateResponse {
	return StateResponse{
		State:           state,
		CompletionRatio: CompletionRatio(state.Exercises),
	}
}

func (handler *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.state")
	defer span.End()

	pkg.WriteJSONResponseOK(w, newStateResponse(handler.store.State()))
}

func (handler *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.toggle")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("exercise.id", id))

	if handler.store.IsLoading() {
		http.Error(w, "tracker still loading", http.StatusServiceUnavailable)
		return
	}

	if !handler.store.ToggleExercise(id) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}

	log.Debugf("exercise [%s] toggled", id)
	pkg.WriteJSONResponseOK(w, newStateResponse(handler.store.State()))
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.reset")
	defer span.End()

	if handler.store.IsLoading() {
		http.Error(w, "tracker still loading", http.StatusServiceUnavailable)
		return
	}

	handler.store.ResetDaily()

	log.Debugln("daily exercises reset")
	pkg.WriteJSONResponseOK(w, newStateResponse(handler.store.State()))
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.history")
	defer span.End()

	state := handler.store.State()
	pkg.WriteJSONResponseOK(w, HistoryResponse{
		CompletionHistory:  state.CompletionHistory,
		Streak:             state.Streak,
		LastCompletionDate: state.LastCompletionDate,
	})
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracker.stats")
	defer span.End()

	state := handler.store.State()
	pkg.WriteJSONResponseOK(w, StatsResponse{
		Summary:    Summarize(state),
		Categories: CategoryBreakdown(state.Exercises),
		Week:       WeeklyProgress(state.CompletionHistory, handler.store.Now()),
	})
}

func (handler *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pkg.WriteJSONResponseOK(w, map[string]any{
		"status":  "ok",
		"loading": handler.store.IsLoading(),
	})
}
