package attendance

import (
	"context"

	"ms-attendance/internal/issuance"
)

// InitializeEvent stores a new event for the caller and creates its credential
// collection. A second event with the same name from the same creator lands on
// the same address and fails with ledger.ErrAccountInUse.
func (p *Program) InitializeEvent(ctx context.Context, inv *Invocation, ix InitializeEvent) (*Result, error) {
	event := &Event{
		Creator:             inv.Caller,
		Name:                ix.Name,
		Description:         ix.Description,
		URI:                 ix.URI,
		AttendanceCode:      ix.AttendanceCode,
		StartTime:           ix.StartTime,
		EndTime:             ix.EndTime,
		TotalAttendees:      ix.TotalAttendees,
		RegisteredAttendees: 0,
		CollectionAuthority: ix.CollectionAuthority,
	}
	if err := event.checkBounds(); err != nil {
		return nil, err
	}
	eventAddr, err := EventAddress(p.ID, inv.Caller, ix.Name)
	if err != nil {
		return nil, err
	}
	if err := p.create(ctx, inv.Tx, eventAddr, KindEvent, event); err != nil {
		return nil, err
	}

	collection, collectionCap, err := p.signAsCollection(inv, ix.Name)
	if err != nil {
		return nil, err
	}
	holding, holdingCap, err := p.signAs(inv, []byte(seedCollectionHolding), []byte(ix.Name))
	if err != nil {
		return nil, err
	}
	call := inv.call(collectionCap)

	if err := p.Issuance.InitializeMint(ctx, call, collection, collection); err != nil {
		return nil, err
	}
	if err := p.Issuance.OpenHolding(ctx, inv.call(holdingCap), holding, collection, holding); err != nil {
		return nil, err
	}

	inv.Log("creating mint account...")
	if err := p.Issuance.Mint(ctx, call, collection, holding, 1); err != nil {
		return nil, err
	}

	inv.Log("creating metadata account")
	metadata, err := p.Issuance.WriteMetadata(ctx, call, collection, issuance.MetadataArgs{
		Name:              event.Name,
		Symbol:            issuance.Symbol,
		URI:               event.URI,
		Creators:          []issuance.Creator{{Address: collection, Share: 100}},
		CollectionDetails: &issuance.CollectionDetails{Size: 0},
		IsMutable:         true,
	})
	if err != nil {
		return nil, err
	}

	inv.Log("creating master edition account")
	if _, err := p.Issuance.CreateMasterRecord(ctx, call, collection, 0); err != nil {
		return nil, err
	}

	inv.Log("verifying the collection...")
	if err := p.Issuance.SignMetadata(ctx, call, metadata); err != nil {
		return nil, err
	}

	return &Result{EventAddress: eventAddr, Event: event}, nil
}

// EditEvent overwrites the code, window and capacity of the caller's event.
// Capacity is not checked against the current registration count.
func (p *Program) EditEvent(ctx context.Context, inv *Invocation, ix EditEvent) (*Result, error) {
	eventAddr, err := EventAddress(p.ID, inv.Caller, ix.Name)
	if err != nil {
		return nil, ErrConstraintSeeds
	}
	event, err := p.loadEvent(ctx, inv.Tx, eventAddr)
	if err != nil {
		return nil, err
	}
	if event.Creator != inv.Caller {
		return nil, ErrConstraintHasOne
	}

	event.AttendanceCode = ix.AttendanceCode
	event.StartTime = ix.StartTime
	event.EndTime = ix.EndTime
	event.TotalAttendees = ix.TotalAttendees
	if err := p.put(ctx, inv.Tx, eventAddr, KindEvent, event); err != nil {
		return nil, err
	}
	return &Result{EventAddress: eventAddr, Event: event}, nil
}

// CloseEvent deletes the caller's event and returns its allowance. Outstanding
// registrations are left in place.
func (p *Program) CloseEvent(ctx context.Context, inv *Invocation, ix CloseEvent) (*Result, error) {
	event, err := p.loadEvent(ctx, inv.Tx, ix.Event)
	if err != nil {
		return nil, err
	}
	if event.Creator != inv.Caller {
		return nil, ErrConstraintHasOne
	}

	inv.Log("closing account: %s", ix.Event)
	reclaimed, err := inv.Tx.Close(ctx, ix.Event)
	if err != nil {
		return nil, err
	}
	return &Result{EventAddress: ix.Event, Event: event, Reclaimed: reclaimed}, nil
}
