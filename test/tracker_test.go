//go:build integration_test || all_tests

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/dailyfit/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthResponse struct {
	Status  string `json:"status"`
	Loading bool   `json:"loading"`
}

func (s *IntegrationTestSuite) getHealth() (healthResponse, error) {
	var health healthResponse
	resp, err := s.httpClient.Get(serverEndpoint + "/health")
	if err != nil {
		return health, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return health, fmt.Errorf("health status: %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&health)
	return health, err
}

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path string, withToken bool, target any) int {
	t := s.T()

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if withToken {
		req.Header.Set("X-DAILYFIT-TOKEN", testAPIToken)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(respBytes, target))
	}
	return resp.StatusCode
}

// persistedSnapshot reads the snapshot row straight from postgres, bypassing the service.
func (s *IntegrationTestSuite) persistedSnapshot(ctx context.Context) (tracker.Snapshot, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, testKVTable),
		testStorageKey,
	).Scan(&raw)
	if err != nil {
		return tracker.Snapshot{}, err
	}
	return tracker.DecodeSnapshot([]byte(raw))
}

func (s *IntegrationTestSuite) TestTracker() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	var state tracker.StateResponse
	require.Equal(t, http.StatusOK, s.doRequest(ctx, "POST", "/tracker/reset", true, &state))
	for _, e := range state.Exercises {
		assert.False(t, e.Completed)
	}
	streakBefore := state.Streak

	// mutations need the token
	assert.Equal(t, http.StatusUnauthorized, s.doRequest(ctx, "POST", "/tracker/exercises/1/toggle", false, nil))
	assert.Equal(t, http.StatusNotFound, s.doRequest(ctx, "POST", "/tracker/exercises/nope/toggle", true, nil))

	for _, e := range state.Exercises {
		require.Equal(t, http.StatusOK, s.doRequest(ctx, "POST", "/tracker/exercises/"+e.ID+"/toggle", true, &state))
	}
	assert.Equal(t, float64(1), state.CompletionRatio)
	assert.GreaterOrEqual(t, state.Streak, 1)
	assert.GreaterOrEqual(t, state.Streak, streakBefore)
	require.NotEmpty(t, state.CompletionHistory)
	assert.Equal(t, state.LastCompletionDate, state.CompletionHistory[len(state.CompletionHistory)-1].Date)

	var history tracker.HistoryResponse
	require.Equal(t, http.StatusOK, s.doRequest(ctx, "GET", "/tracker/history", false, &history))
	assert.Equal(t, state.CompletionHistory, history.CompletionHistory)
	assert.Equal(t, state.Streak, history.Streak)

	var stats tracker.StatsResponse
	require.Equal(t, http.StatusOK, s.doRequest(ctx, "GET", "/tracker/stats", false, &stats))
	assert.Equal(t, state.Streak, stats.Summary.CurrentStreak)
	assert.Len(t, stats.Week, 7)

	// writes are asynchronous, wait for the last one to land
	require.Eventually(t, func() bool {
		snapshot, err := s.persistedSnapshot(ctx)
		if err != nil {
			if err != sql.ErrNoRows {
				t.Logf("read snapshot: %s", err)
			}
			return false
		}
		return snapshot.Streak == state.Streak &&
			snapshot.LastCompletionDate == state.LastCompletionDate &&
			tracker.CompletionRatio(snapshot.Exercises) == 1
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestMetricsEndpoint() {
	t := s.T()

	resp, err := s.httpClient.Get(fmt.Sprintf("http://%s:9001/metrics", serverHost))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dailyfit_main_request")
	assert.Contains(t, string(body), "pgxpool_")
}
