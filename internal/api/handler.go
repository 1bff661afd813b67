// Package api exposes the attendance program over HTTP.
package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-attendance/internal/analytics"
	"ms-attendance/internal/attendance"
	"ms-attendance/internal/auth"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/qr"
	"ms-attendance/internal/runtime"
	"ms-attendance/internal/sse"
	"ms-attendance/internal/utils"

	"github.com/go-chi/chi/v5"
)

var (
	errMissingCode = errors.New("one of attendance_code, attendance_phrase or encrypted_qr is required")
	errBadCode     = errors.New("attendance_code must be 64 hex characters")
	errPassEvent   = errors.New("attendance pass belongs to a different event")
	errNoCaller    = errors.New("no authenticated caller")
)

type Handler struct {
	Runtime   *runtime.Runtime
	Reader    attendance.Reader
	Analytics *analytics.Service
	QR        *qr.QRGenerator
	Emitter   *sse.ActivityEmitter
	Logger    *logger.Logger
}

func NewHandler(rt *runtime.Runtime, reader attendance.Reader, qrGen *qr.QRGenerator, emitter *sse.ActivityEmitter, log *logger.Logger) *Handler {
	return &Handler{
		Runtime:   rt,
		Reader:    reader,
		Analytics: analytics.NewService(rt.Program, reader),
		QR:        qrGen,
		Emitter:   emitter,
		Logger:    log,
	}
}

func (h *Handler) program() *attendance.Program {
	return h.Runtime.Program
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (ledger.Address, bool) {
	caller, ok := auth.Caller(r.Context())
	if !ok {
		h.respondError(w, r, errNoCaller)
	}
	return caller, ok
}

// addressParam reads a base58 address from the URL.
func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request, name string) (ledger.Address, bool) {
	addr, err := ledger.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		h.respondError(w, r, err)
		return ledger.Address{}, false
	}
	return addr, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("%s %s: invalid JSON: %v", r.Method, r.URL.Path, err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return false
	}
	return true
}

// attendanceCode resolves the code from hex or a phrase. An empty request is an error.
func attendanceCode(hexCode, phrase string) ([32]byte, error) {
	var code [32]byte
	switch {
	case hexCode != "":
		raw, err := hex.DecodeString(hexCode)
		if err != nil || len(raw) != len(code) {
			return code, errBadCode
		}
		copy(code[:], raw)
		return code, nil
	case phrase != "":
		return attendance.AttendanceCodeFromPhrase(phrase), nil
	}
	return code, errMissingCode
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]string{
		"program": h.program().ID.String(),
	}))
}
