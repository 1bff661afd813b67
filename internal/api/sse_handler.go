package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-attendance/internal/sse"
)

// StreamActivity streams committed activity for one event. The event must
// exist when the client connects.
func (h *Handler) StreamActivity(w http.ResponseWriter, r *http.Request) {
	event, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	if _, err := h.program().GetEvent(r.Context(), h.Reader, event); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.stream(w, r, event.String())
}

// StreamAllActivity streams committed activity for every event.
func (h *Handler) StreamAllActivity(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, sse.AllEvents)
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, key string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.Logger.Warn("SSE", fmt.Sprintf("could not clear write deadline: %v", err))
	}
	setupSSEHeaders(w)

	// Cancels when the client disconnects
	ctx := r.Context()
	activity := h.Emitter.Subscribe(ctx, key)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"event\":%q}\n\n", key)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to activity stream for %s", key))

	for {
		select {
		case a, ok := <-activity:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for %s", key))
				return
			}

			jsonData, err := json.Marshal(a)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize activity: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", a.Instruction, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from activity stream for %s", key))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "no-referrer")
}
