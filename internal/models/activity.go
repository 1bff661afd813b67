package models

import "time"

// Activity is published to Kafka and streamed over SSE after a transaction commits.
type Activity struct {
	TxID        string    `json:"tx_id"`
	Instruction string    `json:"instruction"`
	Caller      string    `json:"caller"`
	Event       string    `json:"event,omitempty"`
	EventName   string    `json:"event_name,omitempty"`
	Attendee    string    `json:"attendee,omitempty"`
	Credential  string    `json:"credential,omitempty"`
	Registered  uint32    `json:"registered_attendees"`
	Total       uint32    `json:"total_attendees"`
	Reclaimed   uint64    `json:"reclaimed,omitempty"`
	CommittedAt time.Time `json:"committed_at"`
}
