package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ms-attendance/internal/capability"
	"ms-attendance/internal/issuance"
	"ms-attendance/internal/ledger"

	"github.com/stretchr/testify/require"
)

const (
	startTime = int64(1_700_000_000)
	endTime   = startTime + 3600
)

var (
	programID = ledger.AddressFromSeed("attendance-program")
	organizer = ledger.AddressFromSeed("organizer")
	alice     = ledger.AddressFromSeed("alice")
	bob       = ledger.AddressFromSeed("bob")
	carol     = ledger.AddressFromSeed("carol")
	codeK     = AttendanceCodeFromPhrase("gophers unite")
)

type harness struct {
	t       *testing.T
	store   *ledger.MemoryStore
	iss     *issuance.Service
	program *Program
	txn     int
}

func newHarness(t *testing.T) *harness {
	signer := capability.NewIssuer([]byte("test-secret"), time.Minute, nil)
	iss := issuance.NewService(ledger.AddressFromSeed("token-metadata"), signer)
	return &harness{
		t:       t,
		store:   ledger.NewMemoryStore(),
		iss:     iss,
		program: NewProgram(programID, iss, signer),
	}
}

// exec runs ix as one transaction and discards its writes on error.
func (h *harness) exec(caller ledger.Address, now time.Time, ix Instruction) (*Result, *Invocation, error) {
	h.txn++
	inv := &Invocation{TxID: fmt.Sprintf("tx-%d", h.txn), Caller: caller, Now: now}
	var res *Result
	err := h.store.RunInTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		inv.Tx = tx
		var err error
		res, err = h.program.Execute(ctx, inv, ix)
		return err
	})
	return res, inv, err
}

func during() time.Time {
	return time.Unix(startTime+60, 0)
}

func (h *harness) createEvent(name string, total uint32) ledger.Address {
	h.t.Helper()
	collection, _, err := CollectionAuthority(programID, name)
	require.NoError(h.t, err)
	res, _, err := h.exec(organizer, during(), InitializeEvent{
		Name:                name,
		Description:         "a conference",
		URI:                 "https://example.com/" + name,
		AttendanceCode:      codeK,
		StartTime:           startTime,
		EndTime:             endTime,
		TotalAttendees:      total,
		CollectionAuthority: collection,
	})
	require.NoError(h.t, err)
	return res.EventAddress
}

func (h *harness) event(addr ledger.Address) *Event {
	h.t.Helper()
	e, err := h.program.GetEvent(context.Background(), h.store, addr)
	require.NoError(h.t, err)
	return e
}

func (h *harness) registration(event, attendee ledger.Address) (*EventRegistration, error) {
	addr, err := RegistrationAddress(programID, event, attendee)
	require.NoError(h.t, err)
	return h.program.GetRegistration(context.Background(), h.store, addr)
}
