package models

import "time"

type SubmitTransactionRequest struct {
	Instruction string `json:"instruction"`
}

type InitializeEventRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	URI                 string `json:"uri"`
	AttendanceCode      string `json:"attendance_code,omitempty"`
	AttendancePhrase    string `json:"attendance_phrase,omitempty"`
	StartTime           int64  `json:"start_time"`
	EndTime             int64  `json:"end_time"`
	TotalAttendees      uint32 `json:"total_attendees"`
	CollectionAuthority string `json:"collection_authority,omitempty"`
}

type EditEventRequest struct {
	AttendanceCode   string `json:"attendance_code,omitempty"`
	AttendancePhrase string `json:"attendance_phrase,omitempty"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	TotalAttendees   uint32 `json:"total_attendees"`
}

// MintRequest carries the attendance code in one of three forms.
type MintRequest struct {
	AttendanceCode   string `json:"attendance_code,omitempty"`
	AttendancePhrase string `json:"attendance_phrase,omitempty"`
	EncryptedQR      string `json:"encrypted_qr,omitempty"`
}

type EventView struct {
	Address             string    `json:"address"`
	Creator             string    `json:"creator"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	URI                 string    `json:"uri"`
	StartTime           int64     `json:"start_time"`
	EndTime             int64     `json:"end_time"`
	StartsAt            time.Time `json:"starts_at"`
	EndsAt              time.Time `json:"ends_at"`
	TotalAttendees      uint32    `json:"total_attendees"`
	RegisteredAttendees uint32    `json:"registered_attendees"`
	CollectionAuthority string    `json:"collection_authority"`
	CollectionMint      string    `json:"collection_mint"`
}

type RegistrationView struct {
	Address          string `json:"address"`
	Event            string `json:"event"`
	Attendee         string `json:"attendee"`
	Registered       bool   `json:"registered"`
	Attended         bool   `json:"attended"`
	CredentialMinted bool   `json:"credential_minted"`
	CredentialMint   string `json:"credential_mint"`
}

type ReceiptView struct {
	TxID           string            `json:"tx_id"`
	Instruction    string            `json:"instruction"`
	Event          *EventView        `json:"event,omitempty"`
	Registration   *RegistrationView `json:"registration,omitempty"`
	CredentialMint string            `json:"credential_mint,omitempty"`
	Reclaimed      uint64            `json:"reclaimed,omitempty"`
	Logs           []string          `json:"logs"`
}

type ErrorView struct {
	Code    uint32 `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}
