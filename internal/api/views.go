package api

import (
	"ms-attendance/internal/attendance"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/runtime"
	"ms-attendance/internal/utils"
)

func (h *Handler) eventView(addr ledger.Address, e *attendance.Event) *models.EventView {
	view := &models.EventView{
		Address:             addr.String(),
		Creator:             e.Creator.String(),
		Name:                e.Name,
		Description:         e.Description,
		URI:                 e.URI,
		StartTime:           e.StartTime,
		EndTime:             e.EndTime,
		StartsAt:            utils.UnixTimeToTime(e.StartTime),
		EndsAt:              utils.UnixTimeToTime(e.EndTime),
		TotalAttendees:      e.TotalAttendees,
		RegisteredAttendees: e.RegisteredAttendees,
		CollectionAuthority: e.CollectionAuthority.String(),
	}
	// The collection mint sits at the collection authority's own address.
	if mint, _, err := attendance.CollectionAuthority(h.program().ID, e.Name); err == nil {
		view.CollectionMint = mint.String()
	}
	return view
}

func (h *Handler) registrationView(addr ledger.Address, reg *attendance.EventRegistration) *models.RegistrationView {
	view := &models.RegistrationView{
		Address:          addr.String(),
		Event:            reg.Event.String(),
		Attendee:         reg.Attendee.String(),
		Registered:       reg.Registered,
		Attended:         reg.Attended,
		CredentialMinted: reg.CredentialMinted,
	}
	if reg.CredentialMinted {
		if mint, err := attendance.CredentialMintAddress(h.program().ID, reg.Event, reg.Attendee); err == nil {
			view.CredentialMint = mint.String()
		}
	}
	return view
}

func (h *Handler) receiptView(rc *runtime.Receipt) *models.ReceiptView {
	view := &models.ReceiptView{
		TxID:           rc.TxID,
		Instruction:    rc.Instruction,
		CredentialMint: rc.CredentialMint,
		Reclaimed:      rc.Reclaimed,
		Logs:           rc.Logs,
	}
	if rc.Event != nil {
		if addr, err := ledger.ParseAddress(rc.EventAddress); err == nil {
			view.Event = h.eventView(addr, rc.Event)
		}
	}
	if rc.Registration != nil {
		if addr, err := ledger.ParseAddress(rc.RegistrationAddress); err == nil {
			view.Registration = h.registrationView(addr, rc.Registration)
		}
	}
	return view
}
