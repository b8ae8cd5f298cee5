package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/parallel/internal/engine"
	"github.com/seantiz/parallel/internal/model"
	"github.com/seantiz/parallel/internal/store"
)

// handleStreamRunEvents streams the events of one run. The stream ends with
// a done event once the run finished.
func (s *Server) handleStreamRunEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if st := s.engine.Store(); st != nil {
		run, err := st.GetRun(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			s.logger.Error("get run for events", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to get run")
			return
		}
		if model.IsTerminal(run.Status) {
			setSSEHeaders(w)
			w.WriteHeader(http.StatusOK)
			_ = writeSSEEvent(w, "done", "stream complete")
			return
		}
	}

	// Subscribing to a topic closed since the status check above returns a
	// closed channel, so the stream ends immediately.
	ch, unsub := s.engine.Broker().Subscribe(id)
	defer unsub()

	s.stream(w, r, streamScopeRun, ch)
}

// handleStreamAllEvents streams every scheduler event until the client
// disconnects or the server shuts down.
func (s *Server) handleStreamAllEvents(w http.ResponseWriter, r *http.Request) {
	ch, unsub := s.engine.Broker().Subscribe(engine.AllTopic)
	defer unsub()

	s.stream(w, r, streamScopeAll, ch)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, scope string, ch <-chan engine.Message) {
	defer trackStream(scope)()

	setSSEHeaders(w)

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				_ = writeSSEEvent(w, "done", "stream complete")
				if canFlush {
					flusher.Flush()
				}
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("encode event", "error", err)
				continue
			}
			if err := writeSSEEvent(w, msg.Event, string(data)); err != nil {
				return // Write failed (e.g. client gone).
			}
			if canFlush {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeSSEEvent writes a named SSE event. Multi-line data is split so that
// each segment gets its own "data:" prefix.
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	for seg := range strings.SplitSeq(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", seg); err != nil {
			return err
		}
	}
	// Blank line terminates the event.
	_, err := fmt.Fprint(w, "\n")
	return err
}
