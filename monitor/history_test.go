package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calvinmclean/babyapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/autovalve"
)

func newTestHistory(start time.Time) *History {
	h := NewHistory()
	now := start
	h.now = func() time.Time {
		t := now
		now = now.Add(5 * time.Second)
		return t
	}
	return h
}

func TestHistory(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	h := newTestHistory(start)

	// ignored without a close first
	h.HandleEvent(autovalve.Event{Kind: autovalve.EventOpen, Target: 10})
	h.HandleEvent(autovalve.Event{Kind: autovalve.EventIdle})

	h.HandleEvent(autovalve.Event{Kind: autovalve.EventClose, Position: 0, Target: 40})
	h.HandleEvent(autovalve.Event{Kind: autovalve.EventRetarget, Target: 80})
	h.HandleEvent(autovalve.Event{
		Kind:       autovalve.EventOpen,
		Target:     80,
		Millivolts: 12000,
		Duration:   3320 * time.Millisecond,
	})
	h.HandleEvent(autovalve.Event{Kind: autovalve.EventIdle, Position: 80, Target: 80})

	srv := httptest.NewServer(NewServeMux(nil, h))
	defer srv.Close()

	client := babyapi.NewClient[*Move](srv.URL, "/moves")

	t.Run("GetMove", func(t *testing.T) {
		resp, err := client.Get(context.Background(), "1")
		require.NoError(t, err)

		move := resp.Data
		assert.Equal(t, "1", move.ID)
		assert.Equal(t, 0, move.From)
		assert.Equal(t, 80, move.Target)
		assert.Equal(t, 1, move.Retargets)
		assert.Equal(t, 12000, move.Millivolts)
		assert.Equal(t, 3320*time.Millisecond, move.OpenPulse)
		assert.True(t, start.Equal(move.Started))
		assert.True(t, start.Add(5*time.Second).Equal(move.Finished))
	})

	t.Run("OnlyCompletedMoves", func(t *testing.T) {
		_, err := client.Get(context.Background(), "2")
		assert.Error(t, err)
	})

	t.Run("ReadOnly", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/moves", "application/json", strings.NewReader(`{"id":"9"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"))
	})

	t.Run("NoMetricsRoute", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServeMuxMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.HandleEvent(autovalve.Event{Kind: autovalve.EventClose, Target: 80})

	srv := httptest.NewServer(NewServeMux(metrics, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/moves")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewMetrics(), NewHistory())
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
