package attendance

import (
	"context"

	"ms-attendance/internal/issuance"
	"ms-attendance/internal/ledger"
)

// Reader is the read side of a ledger store.
type Reader interface {
	issuance.Getter
	List(ctx context.Context, owner ledger.Address, kind string) ([]ledger.Account, error)
}

type EventEntry struct {
	Address ledger.Address
	Event   Event
}

type RegistrationEntry struct {
	Address      ledger.Address
	Registration EventRegistration
}

func (p *Program) GetEvent(ctx context.Context, r issuance.Getter, addr ledger.Address) (*Event, error) {
	var e Event
	if err := p.load(ctx, r, addr, KindEvent, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (p *Program) ListEvents(ctx context.Context, r Reader) ([]EventEntry, error) {
	accts, err := r.List(ctx, p.ID, KindEvent)
	if err != nil {
		return nil, err
	}
	out := make([]EventEntry, 0, len(accts))
	for _, acct := range accts {
		var e Event
		if err := e.UnmarshalBinary(acct.Data); err != nil {
			return nil, err
		}
		out = append(out, EventEntry{Address: acct.Address, Event: e})
	}
	return out, nil
}

func (p *Program) GetRegistration(ctx context.Context, r issuance.Getter, addr ledger.Address) (*EventRegistration, error) {
	var reg EventRegistration
	if err := p.load(ctx, r, addr, KindRegistration, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListRegistrations returns the registrations held against event.
func (p *Program) ListRegistrations(ctx context.Context, r Reader, event ledger.Address) ([]RegistrationEntry, error) {
	return p.registrations(ctx, r, func(reg *EventRegistration) bool { return reg.Event == event })
}

// ListAttendeeRegistrations returns every registration attendee holds, across events.
func (p *Program) ListAttendeeRegistrations(ctx context.Context, r Reader, attendee ledger.Address) ([]RegistrationEntry, error) {
	return p.registrations(ctx, r, func(reg *EventRegistration) bool { return reg.Attendee == attendee })
}

func (p *Program) registrations(ctx context.Context, r Reader, keep func(*EventRegistration) bool) ([]RegistrationEntry, error) {
	accts, err := r.List(ctx, p.ID, KindRegistration)
	if err != nil {
		return nil, err
	}
	var out []RegistrationEntry
	for _, acct := range accts {
		var reg EventRegistration
		if err := reg.UnmarshalBinary(acct.Data); err != nil {
			return nil, err
		}
		if keep(&reg) {
			out = append(out, RegistrationEntry{Address: acct.Address, Registration: reg})
		}
	}
	return out, nil
}
