package attendance

import (
	"context"
	"errors"
	"math"

	"ms-attendance/internal/ledger"
)

// RegisterEvent reserves a slot for the caller. The registration address is
// derived from (event, caller), so a repeat attempt fails with ledger.ErrAccountInUse.
func (p *Program) RegisterEvent(ctx context.Context, inv *Invocation, ix RegisterEvent) (*Result, error) {
	event, err := p.loadEvent(ctx, inv.Tx, ix.Event)
	if err != nil {
		return nil, err
	}

	// >= rather than == keeps the ceiling after an edit shrank capacity below the count.
	if event.RegisteredAttendees >= event.TotalAttendees {
		return nil, ErrRegistrationCompleted
	}

	regAddr, err := RegistrationAddress(p.ID, ix.Event, inv.Caller)
	if err != nil {
		return nil, err
	}
	reg := &EventRegistration{
		Event:      ix.Event,
		Attendee:   inv.Caller,
		Registered: true,
	}
	if err := p.create(ctx, inv.Tx, regAddr, KindRegistration, reg); err != nil {
		return nil, err
	}

	if event.RegisteredAttendees == math.MaxUint32 {
		return nil, ErrArithmeticOverflow
	}
	event.RegisteredAttendees++
	if err := p.put(ctx, inv.Tx, ix.Event, KindEvent, event); err != nil {
		return nil, err
	}

	return &Result{
		EventAddress:        ix.Event,
		Event:               event,
		RegistrationAddress: regAddr,
		Registration:        reg,
	}, nil
}

// CancelRegistration deletes the caller's registration, returns its allowance
// to the caller and frees the slot.
func (p *Program) CancelRegistration(ctx context.Context, inv *Invocation, ix CancelRegistration) (*Result, error) {
	event, err := p.loadEvent(ctx, inv.Tx, ix.Event)
	if err != nil {
		return nil, err
	}

	regAddr, err := RegistrationAddress(p.ID, ix.Event, inv.Caller)
	if err != nil {
		return nil, err
	}
	reg, err := p.loadRegistration(ctx, inv.Tx, regAddr)
	if err != nil {
		return nil, err
	}

	reclaimed, err := inv.Tx.Close(ctx, regAddr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, ErrAccountNotInitialized
	}
	if err != nil {
		return nil, err
	}

	if event.RegisteredAttendees == 0 {
		return nil, ErrArithmeticOverflow
	}
	event.RegisteredAttendees--
	if err := p.put(ctx, inv.Tx, ix.Event, KindEvent, event); err != nil {
		return nil, err
	}

	return &Result{
		EventAddress:        ix.Event,
		Event:               event,
		RegistrationAddress: regAddr,
		Registration:        reg,
		Reclaimed:           reclaimed,
	}, nil
}
