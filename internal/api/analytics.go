package api

import (
	"net/http"

	"ms-attendance/internal/utils"
)

func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	stats, err := h.Analytics.EventStats(r.Context(), addr)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event stats", stats))
}

// OrganizerSummary reports on every event the caller created.
func (h *Handler) OrganizerSummary(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	summary, err := h.Analytics.OrganizerSummary(r.Context(), caller)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer summary", summary))
}
