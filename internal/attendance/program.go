// Package attendance is the event registration and proof-of-attendance
// program. Every operation runs inside one ledger transaction supplied by the
// caller, with the caller identity and clock passed in explicitly.
package attendance

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"time"

	"ms-attendance/internal/capability"
	"ms-attendance/internal/issuance"
	"ms-attendance/internal/ledger"
)

// Issuance is the token and metadata service the program mints through.
type Issuance interface {
	InitializeMint(ctx context.Context, call issuance.Call, mint, authority ledger.Address) error
	OpenHolding(ctx context.Context, call issuance.Call, holding, mint, owner ledger.Address) error
	CreateAssociatedHolding(ctx context.Context, tx ledger.Tx, owner, mint ledger.Address) (ledger.Address, error)
	Mint(ctx context.Context, call issuance.Call, mint, holding ledger.Address, amount uint64) error
	WriteMetadata(ctx context.Context, call issuance.Call, mint ledger.Address, args issuance.MetadataArgs) (ledger.Address, error)
	CreateMasterRecord(ctx context.Context, call issuance.Call, mint ledger.Address, maxSupply uint64) (ledger.Address, error)
	SignMetadata(ctx context.Context, call issuance.Call, metadata ledger.Address) error
	VerifySizedCollectionItem(ctx context.Context, call issuance.Call, childMetadata, collectionMint ledger.Address) error
}

// Signer hands out capabilities for addresses derived from a program's seeds.
type Signer interface {
	InvokeSigned(programID ledger.Address, txID string, seeds ...[]byte) (*capability.Capability, error)
}

type Program struct {
	ID       ledger.Address
	Issuance Issuance
	Signer   Signer
}

func NewProgram(id ledger.Address, iss Issuance, signer Signer) *Program {
	return &Program{ID: id, Issuance: iss, Signer: signer}
}

// Invocation is the explicit environment of one instruction.
type Invocation struct {
	TxID   string
	Caller ledger.Address
	Now    time.Time
	Tx     ledger.Tx

	logs []string
}

func (inv *Invocation) Log(format string, args ...interface{}) {
	inv.logs = append(inv.logs, fmt.Sprintf(format, args...))
}

func (inv *Invocation) Logs() []string {
	return inv.logs
}

func (inv *Invocation) call(signer *capability.Capability) issuance.Call {
	return issuance.Call{Tx: inv.Tx, TxID: inv.TxID, Signer: signer}
}

// Result describes the records an instruction left behind.
type Result struct {
	EventAddress        ledger.Address
	Event               *Event
	RegistrationAddress ledger.Address
	Registration        *EventRegistration
	CredentialMint      ledger.Address
	Reclaimed           uint64
}

// Execute runs ix. Any error means the caller must discard inv.Tx.
func (p *Program) Execute(ctx context.Context, inv *Invocation, ix Instruction) (*Result, error) {
	switch ix := ix.(type) {
	case InitializeEvent:
		return p.InitializeEvent(ctx, inv, ix)
	case EditEvent:
		return p.EditEvent(ctx, inv, ix)
	case CloseEvent:
		return p.CloseEvent(ctx, inv, ix)
	case RegisterEvent:
		return p.RegisterEvent(ctx, inv, ix)
	case CancelRegistration:
		return p.CancelRegistration(ctx, inv, ix)
	case MintNFT:
		return p.MintNFT(ctx, inv, ix)
	}
	return nil, ErrInstructionFallbackNotFound
}

// WritableRecords lists the records ix may write. Transactions whose sets
// overlap must not run concurrently. Every instruction on an event includes
// the event itself, so the collection records hanging off it are covered too.
func (p *Program) WritableRecords(caller ledger.Address, ix Instruction) ([]ledger.Address, error) {
	switch ix := ix.(type) {
	case InitializeEvent:
		// Names that cannot derive an address write nothing; Execute rejects them.
		event, err := EventAddress(p.ID, caller, ix.Name)
		if err != nil {
			return nil, nil
		}
		collection, _, err := CollectionAuthority(p.ID, ix.Name)
		if err != nil {
			return nil, nil
		}
		return []ledger.Address{event, collection}, nil
	case EditEvent:
		event, err := EventAddress(p.ID, caller, ix.Name)
		if err != nil {
			return nil, nil
		}
		return []ledger.Address{event}, nil
	case CloseEvent:
		return []ledger.Address{ix.Event}, nil
	case RegisterEvent:
		return p.eventAndRegistration(ix.Event, caller)
	case CancelRegistration:
		return p.eventAndRegistration(ix.Event, caller)
	case MintNFT:
		return p.eventAndRegistration(ix.Event, caller)
	}
	return nil, ErrInstructionFallbackNotFound
}

func (p *Program) eventAndRegistration(event, attendee ledger.Address) ([]ledger.Address, error) {
	reg, err := RegistrationAddress(p.ID, event, attendee)
	if err != nil {
		return nil, err
	}
	return []ledger.Address{event, reg}, nil
}

// loadEvent reads an event and checks it sits at the address its own creator and name derive.
func (p *Program) loadEvent(ctx context.Context, tx ledger.Tx, addr ledger.Address) (*Event, error) {
	var e Event
	if err := p.load(ctx, tx, addr, KindEvent, &e); err != nil {
		return nil, err
	}
	want, err := EventAddress(p.ID, e.Creator, e.Name)
	if err != nil || want != addr {
		return nil, ErrConstraintSeeds
	}
	return &e, nil
}

func (p *Program) loadRegistration(ctx context.Context, tx ledger.Tx, addr ledger.Address) (*EventRegistration, error) {
	var r EventRegistration
	if err := p.load(ctx, tx, addr, KindRegistration, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Program) load(ctx context.Context, g issuance.Getter, addr ledger.Address, kind string, v encoding.BinaryUnmarshaler) error {
	acct, err := g.Get(ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return ErrAccountNotInitialized
	}
	if err != nil {
		return err
	}
	if acct.Owner != p.ID {
		return ErrAccountOwnedByWrongProgram
	}
	if acct.Kind != kind {
		return ErrAccountDiscriminatorMismatch
	}
	return v.UnmarshalBinary(acct.Data)
}

func (p *Program) account(addr ledger.Address, kind string, v encoding.BinaryMarshaler) (ledger.Account, error) {
	data, err := v.MarshalBinary()
	if err != nil {
		return ledger.Account{}, err
	}
	return ledger.Account{
		Address:   addr,
		Owner:     p.ID,
		Kind:      kind,
		Allowance: ledger.AllowanceFor(len(data)),
		Data:      data,
	}, nil
}

func (p *Program) create(ctx context.Context, tx ledger.Tx, addr ledger.Address, kind string, v encoding.BinaryMarshaler) error {
	acct, err := p.account(addr, kind, v)
	if err != nil {
		return err
	}
	return tx.Create(ctx, acct)
}

func (p *Program) put(ctx context.Context, tx ledger.Tx, addr ledger.Address, kind string, v encoding.BinaryMarshaler) error {
	acct, err := p.account(addr, kind, v)
	if err != nil {
		return err
	}
	return tx.Put(ctx, acct)
}
