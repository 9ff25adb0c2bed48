package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/internal/ui/features"
	"github.com/leapstack-labs/typegraph/internal/ui/features/common"
)

func TestHandleStatus(t *testing.T) {
	f := features.SetupTestFixture(t)
	h := NewHandlers(f.Engine)

	get := func() common.Status {
		rec := httptest.NewRecorder()
		h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var st common.Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		return st
	}

	st := get()
	assert.False(t, st.Busy)
	assert.Equal(t, 4, st.Modules)
	assert.True(t, st.History)
	assert.Empty(t, st.Current)

	snap := f.Build(t, features.OrderRoot)
	st = get()
	assert.Equal(t, snap.ID, st.Current)
	assert.Equal(t, "Acme.Shop:Order", st.Root)
}

// readEvent reads one SSE frame, skipping comment pings.
func readEvent(t *testing.T, r *bufio.Reader) (name, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestHandleEvents(t *testing.T) {
	f := features.SetupTestFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(NewHandlers(f.Engine).HandleEvents))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)

	name, data := readEvent(t, r)
	assert.Equal(t, StatusEvent, name)
	var st common.Status
	require.NoError(t, json.Unmarshal([]byte(data), &st))
	assert.Equal(t, 4, st.Modules)

	// The status frame is written after subscribing.
	f.Build(t, features.OrderRoot)

	name, data = readEvent(t, r)
	assert.Equal(t, string(notifier.BuildStarted), name)
	var ev notifier.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "Acme.Shop:Order", ev.Message)

	name, _ = readEvent(t, r)
	assert.Equal(t, string(notifier.BuildFinished), name)
}
