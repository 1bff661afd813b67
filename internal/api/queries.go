package api

import (
	"net/http"

	"ms-attendance/internal/ledger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/utils"
)

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	entries, err := h.program().ListEvents(r.Context(), h.Reader)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]*models.EventView, 0, len(entries))
	for i := range entries {
		views = append(views, h.eventView(entries[i].Address, &entries[i].Event))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", views))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	event, err := h.program().GetEvent(r.Context(), h.Reader, addr)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event", h.eventView(addr, event)))
}

func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	if _, err := h.program().GetEvent(r.Context(), h.Reader, addr); err != nil {
		h.respondError(w, r, err)
		return
	}
	entries, err := h.program().ListRegistrations(r.Context(), h.Reader, addr)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]*models.RegistrationView, 0, len(entries))
	for i := range entries {
		views = append(views, h.registrationView(entries[i].Address, &entries[i].Registration))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("registrations", views))
}

// ListMyRegistrations lists the caller's registrations across every event.
// An attendee query parameter selects another holder.
func (h *Handler) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	attendee, ok := h.caller(w, r)
	if !ok {
		return
	}
	if q := r.URL.Query().Get("attendee"); q != "" && q != "me" {
		addr, err := ledger.ParseAddress(q)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		attendee = addr
	}

	entries, err := h.program().ListAttendeeRegistrations(r.Context(), h.Reader, attendee)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]*models.RegistrationView, 0, len(entries))
	for i := range entries {
		views = append(views, h.registrationView(entries[i].Address, &entries[i].Registration))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("registrations", views))
}

func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	reg, err := h.program().GetRegistration(r.Context(), h.Reader, addr)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("registration", h.registrationView(addr, reg)))
}
