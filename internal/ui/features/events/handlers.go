// Package events reports engine status and streams progress events over SSE.
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/ui/features/common"
)

// KeepAlive is the interval between SSE comment pings.
const KeepAlive = 30 * time.Second

// StatusEvent is the name of the event sent when a stream opens.
const StatusEvent = "status"

// Handlers provides HTTP handlers for the events feature.
type Handlers struct {
	engine *engine.Engine
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine) *Handlers {
	return &Handlers{engine: eng}
}

func (h *Handlers) status() common.Status {
	st := common.Status{
		Busy:    h.engine.Busy(),
		Modules: len(h.engine.Modules()),
		History: h.engine.Store() != nil,
	}
	if snap, err := h.engine.Current(); err == nil {
		st.Current = snap.ID
		st.Root = snap.Root.String()
	}
	return st
}

// HandleStatus returns the engine status.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSON(w, http.StatusOK, h.status())
}

// HandleEvents streams notifier events until the client goes away. The
// first event is always the current status.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	n := h.engine.Notifier()
	if n == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, StatusEvent, h.status()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, string(ev.Kind), ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
