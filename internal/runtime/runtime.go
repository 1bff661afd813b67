// Package runtime executes attendance transactions against a ledger store.
// Each transaction locks the records it may write, runs the program inside
// one store transaction and publishes its activity only after commit.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"

	"github.com/google/uuid"
)

// Publisher streams committed activity to a message broker.
type Publisher interface {
	PublishActivity(ctx context.Context, activity models.Activity) error
}

// Emitter fans committed activity out to live subscribers.
type Emitter interface {
	Emit(activity models.Activity)
}

// Transaction is one signed submission: the caller identity established by
// the transport, the encoded instruction and its account list.
type Transaction struct {
	Caller      ledger.Address
	Instruction []byte
	Accounts    []ledger.Address
}

// Receipt describes a committed transaction.
type Receipt struct {
	TxID                string                        `json:"tx_id"`
	Instruction         string                        `json:"instruction"`
	EventAddress        string                        `json:"event,omitempty"`
	Event               *attendance.Event             `json:"-"`
	RegistrationAddress string                        `json:"registration,omitempty"`
	Registration        *attendance.EventRegistration `json:"-"`
	CredentialMint      string                        `json:"credential_mint,omitempty"`
	Reclaimed           uint64                        `json:"reclaimed,omitempty"`
	Logs                []string                      `json:"logs"`
	CommittedAt         time.Time                     `json:"committed_at"`
}

type Runtime struct {
	Store     ledger.Store
	Program   *attendance.Program
	Locker    ledger.Locker
	Publisher Publisher
	Emitter   Emitter
	Now       func() time.Time
	Logger    *logger.Logger
}

func New(store ledger.Store, program *attendance.Program, locker ledger.Locker, log *logger.Logger) *Runtime {
	if locker == nil {
		locker = ledger.NewLocalLocker()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Runtime{
		Store:   store,
		Program: program,
		Locker:  locker,
		Now:     time.Now,
		Logger:  log,
	}
}

// Submit decodes txn and executes it.
func (r *Runtime) Submit(ctx context.Context, txn Transaction) (*Receipt, error) {
	ix, err := attendance.DecodeInstruction(txn.Instruction, txn.Accounts)
	if err != nil {
		r.Logger.Warn("TRANSACTION", fmt.Sprintf("rejected undecodable instruction from %s: %v", txn.Caller, err))
		return nil, err
	}
	return r.Execute(ctx, txn.Caller, ix)
}

// Execute runs ix on behalf of caller. Nothing is persisted unless it returns
// a receipt.
func (r *Runtime) Execute(ctx context.Context, caller ledger.Address, ix attendance.Instruction) (*Receipt, error) {
	txID := uuid.New().String()

	writable, err := r.Program.WritableRecords(caller, ix)
	if err != nil {
		return nil, err
	}
	writable = ledger.SortedUnique(writable)

	if err := r.Locker.LockRecords(ctx, writable, txID); err != nil {
		r.Logger.LogTransaction(txID, ix.Kind(), fmt.Sprintf("write set busy: %v", err))
		return nil, err
	}
	defer func() {
		// The store transaction is already settled here, so a fresh context
		// keeps a cancelled request from leaking locks until their TTL.
		if err := r.Locker.UnlockRecords(context.Background(), writable, txID); err != nil {
			r.Logger.Error("TRANSACTION", fmt.Sprintf("failed to release locks for %s: %v", txID, err))
		}
	}()

	inv := &attendance.Invocation{TxID: txID, Caller: caller, Now: r.Now()}
	var res *attendance.Result
	err = r.Store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		inv.Tx = tx
		var err error
		res, err = r.Program.Execute(ctx, inv, ix)
		return err
	})
	if err != nil {
		r.logFailure(txID, ix.Kind(), err)
		return nil, err
	}

	receipt := newReceipt(txID, ix, res, inv.Logs(), r.Now())
	r.Logger.LogTransaction(txID, ix.Kind(), fmt.Sprintf("committed by %s (%d log lines)", caller, len(receipt.Logs)))
	r.announce(ctx, caller, receipt)
	return receipt, nil
}

func (r *Runtime) logFailure(txID, instruction string, err error) {
	var perr *attendance.ProgramError
	switch {
	case errors.As(err, &perr):
		r.Logger.LogTransaction(txID, instruction, fmt.Sprintf("rejected: %v", perr))
	case errors.Is(err, ledger.ErrAccountInUse), errors.Is(err, ledger.ErrWriteConflict):
		r.Logger.LogTransaction(txID, instruction, fmt.Sprintf("rejected: %v", err))
	default:
		r.Logger.Error("TRANSACTION", fmt.Sprintf("%s %s failed: %v", instruction, txID, err))
	}
}

func newReceipt(txID string, ix attendance.Instruction, res *attendance.Result, logs []string, at time.Time) *Receipt {
	receipt := &Receipt{
		TxID:        txID,
		Instruction: ix.Kind(),
		Logs:        append([]string{}, logs...),
		CommittedAt: at,
	}
	if res == nil {
		return receipt
	}
	receipt.Event = res.Event
	receipt.Registration = res.Registration
	receipt.Reclaimed = res.Reclaimed
	if !res.EventAddress.IsZero() {
		receipt.EventAddress = res.EventAddress.String()
	}
	if !res.RegistrationAddress.IsZero() {
		receipt.RegistrationAddress = res.RegistrationAddress.String()
	}
	if !res.CredentialMint.IsZero() {
		receipt.CredentialMint = res.CredentialMint.String()
	}
	return receipt
}

// Activity is the broker and stream view of a receipt.
func (rc *Receipt) Activity(caller ledger.Address) models.Activity {
	a := models.Activity{
		TxID:        rc.TxID,
		Instruction: rc.Instruction,
		Caller:      caller.String(),
		Event:       rc.EventAddress,
		Credential:  rc.CredentialMint,
		Reclaimed:   rc.Reclaimed,
		CommittedAt: rc.CommittedAt,
	}
	if rc.Event != nil {
		a.EventName = rc.Event.Name
		a.Registered = rc.Event.RegisteredAttendees
		a.Total = rc.Event.TotalAttendees
	}
	if rc.Registration != nil {
		a.Attendee = rc.Registration.Attendee.String()
	}
	return a
}

// announce runs after commit; delivery failures are logged, never returned.
func (r *Runtime) announce(ctx context.Context, caller ledger.Address, receipt *Receipt) {
	activity := receipt.Activity(caller)
	if r.Emitter != nil {
		r.Emitter.Emit(activity)
	}
	if r.Publisher != nil {
		if err := r.Publisher.PublishActivity(ctx, activity); err != nil {
			r.Logger.Error("KAFKA", fmt.Sprintf("failed to publish %s activity for %s: %v", receipt.Instruction, receipt.TxID, err))
		}
	}
}
