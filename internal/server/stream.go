package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/SAQLAINAP/Architectural-AI-Gemini/internal/progress"
)

// handleStream serves a job's progress as a server-sent event stream.
// The first frame is always `connected`; heartbeats are SSE comment
// frames so the closed event-type vocabulary stays closed. The stream
// ends after the terminal event, when the client goes away, or when the
// hub drops this subscriber for falling behind.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.store.Get(jobID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Subscribe before announcing the connection so no event published
	// in between is missed. For terminal jobs the hub hands back the
	// retained terminal event and an already-closed channel.
	events, unsubscribe := s.hub.Subscribe(jobID)
	defer unsubscribe()

	writeFrame := func(ev progress.Event) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := writeFrame(progress.Event{
		Type:      progress.EventConnected,
		JobID:     jobID,
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"jobId": jobID, "status": job.Status},
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeFrame(ev); err != nil {
				s.logger.Debug("subscriber write failed, closing stream",
					zap.String("job_id", jobID), zap.Error(err))
				return
			}
			if ev.Type.Terminal() {
				return
			}
		}
	}
}
