package api

import (
	"fmt"
	"net/http"
	"strconv"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/qr"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// AttendanceQR renders the event's attendance code as an encrypted QR code.
// Only the event's creator may fetch it.
func (h *Handler) AttendanceQR(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	event, err := h.program().GetEvent(r.Context(), h.Reader, addr)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if event.Creator != caller {
		h.Logger.LogSecurity("QR_DENIED", fmt.Sprintf("%s requested the attendance QR of %s", caller, addr))
		h.respondError(w, r, attendance.ErrConstraintHasOne)
		return
	}

	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= maxQRSize {
			size = n
		}
	}

	png, sealed, err := h.QR.GenerateEncryptedQR(qr.Pass{
		Event:          addr.String(),
		AttendanceCode: event.AttendanceCode,
		IssuedAt:       h.Runtime.Now(),
	}, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Attendance-Pass", sealed)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
