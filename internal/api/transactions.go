package api

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/runtime"
	"ms-attendance/internal/utils"
)

// submitTransactionRequest extends the JSON body with the account list the
// wire format carries alongside the instruction.
type submitTransactionRequest struct {
	models.SubmitTransactionRequest
	Accounts []string `json:"accounts"`
}

// SubmitTransaction executes a raw encoded instruction.
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req submitTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Instruction)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid instruction encoding", err.Error()))
		return
	}
	accounts := make([]ledger.Address, 0, len(req.Accounts))
	for _, s := range req.Accounts {
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		accounts = append(accounts, addr)
	}

	receipt, err := h.Runtime.Submit(r.Context(), runtime.Transaction{Caller: caller, Instruction: data, Accounts: accounts})
	h.respondReceipt(w, r, http.StatusOK, receipt, err)
}

func (h *Handler) InitializeEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req models.InitializeEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	code, err := attendanceCode(req.AttendanceCode, req.AttendancePhrase)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ix := attendance.InitializeEvent{
		Name:           req.Name,
		Description:    req.Description,
		URI:            req.URI,
		AttendanceCode: code,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		TotalAttendees: req.TotalAttendees,
	}
	if req.CollectionAuthority != "" {
		if ix.CollectionAuthority, err = ledger.ParseAddress(req.CollectionAuthority); err != nil {
			h.respondError(w, r, err)
			return
		}
	} else if collection, _, err := attendance.CollectionAuthority(h.program().ID, req.Name); err == nil {
		ix.CollectionAuthority = collection
	}

	h.Logger.LogEvent("INITIALIZE", req.Name, fmt.Sprintf("requested by %s", caller))
	receipt, err := h.Runtime.Execute(r.Context(), caller, ix)
	h.respondReceipt(w, r, http.StatusCreated, receipt, err)
}

// EditEvent resolves the event's name from its record; the program then
// re-derives the address from the caller, so only the creator can edit.
func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	var req models.EditEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	code, err := attendanceCode(req.AttendanceCode, req.AttendancePhrase)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	event, err := h.program().GetEvent(r.Context(), h.Reader, addr)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if event.Creator != caller {
		h.respondError(w, r, attendance.ErrConstraintHasOne)
		return
	}

	receipt, err := h.Runtime.Execute(r.Context(), caller, attendance.EditEvent{
		Name:           event.Name,
		AttendanceCode: code,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		TotalAttendees: req.TotalAttendees,
	})
	h.respondReceipt(w, r, http.StatusOK, receipt, err)
}

func (h *Handler) CloseEvent(w http.ResponseWriter, r *http.Request) {
	h.eventInstruction(w, r, http.StatusOK, func(event ledger.Address) attendance.Instruction {
		return attendance.CloseEvent{Event: event}
	})
}

func (h *Handler) RegisterEvent(w http.ResponseWriter, r *http.Request) {
	h.eventInstruction(w, r, http.StatusCreated, func(event ledger.Address) attendance.Instruction {
		return attendance.RegisterEvent{Event: event}
	})
}

func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	h.eventInstruction(w, r, http.StatusOK, func(event ledger.Address) attendance.Instruction {
		return attendance.CancelRegistration{Event: event}
	})
}

// MintCredential claims the caller's proof of attendance.
func (h *Handler) MintCredential(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	event, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	var req models.MintRequest
	if !h.decode(w, r, &req) {
		return
	}

	var code [32]byte
	var err error
	if req.EncryptedQR != "" {
		pass, openErr := h.QR.Open(req.EncryptedQR)
		if openErr != nil {
			h.Logger.LogSecurity("INVALID_PASS", fmt.Sprintf("caller %s presented an unreadable pass for %s", caller, event))
			h.respondError(w, r, openErr)
			return
		}
		if pass.Event != event.String() {
			h.respondError(w, r, errPassEvent)
			return
		}
		code = pass.AttendanceCode
	} else if code, err = attendanceCode(req.AttendanceCode, req.AttendancePhrase); err != nil {
		h.respondError(w, r, err)
		return
	}

	receipt, err := h.Runtime.Execute(r.Context(), caller, attendance.MintNFT{Event: event, AttendanceCode: code})
	h.respondReceipt(w, r, http.StatusCreated, receipt, err)
}

func (h *Handler) eventInstruction(w http.ResponseWriter, r *http.Request, status int, build func(ledger.Address) attendance.Instruction) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	event, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	receipt, err := h.Runtime.Execute(r.Context(), caller, build(event))
	h.respondReceipt(w, r, status, receipt, err)
}

func (h *Handler) respondReceipt(w http.ResponseWriter, r *http.Request, status int, receipt *runtime.Receipt, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.WriteJSON(w, status, utils.SuccessResponse(receipt.Instruction+" committed", h.receiptView(receipt)))
}
