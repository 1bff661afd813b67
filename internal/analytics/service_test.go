package analytics

import (
	"context"
	"testing"
	"time"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/capability"
	"ms-attendance/internal/issuance"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/runtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const start = int64(1_700_000_000)

var (
	programID = ledger.AddressFromSeed("attendance-program")
	organizer = ledger.AddressFromSeed("organizer")
	code      = attendance.AttendanceCodeFromPhrase("stats")
)

func setup(t *testing.T) (*runtime.Runtime, *Service) {
	signer := capability.NewIssuer([]byte("s"), time.Minute, nil)
	iss := issuance.NewService(ledger.AddressFromSeed("token-metadata"), signer)
	store := ledger.NewMemoryStore()
	program := attendance.NewProgram(programID, iss, signer)
	rt := runtime.New(store, program, nil, nil)
	rt.Now = func() time.Time { return time.Unix(start+1, 0) }
	return rt, NewService(program, store)
}

func create(t *testing.T, rt *runtime.Runtime, creator ledger.Address, name string, total uint32) ledger.Address {
	t.Helper()
	collection, _, err := attendance.CollectionAuthority(programID, name)
	require.NoError(t, err)
	receipt, err := rt.Execute(context.Background(), creator, attendance.InitializeEvent{
		Name: name, AttendanceCode: code, StartTime: start, EndTime: start + 100,
		TotalAttendees: total, CollectionAuthority: collection,
	})
	require.NoError(t, err)
	addr, err := ledger.ParseAddress(receipt.EventAddress)
	require.NoError(t, err)
	return addr
}

func TestEventStats(t *testing.T) {
	rt, svc := setup(t)
	ctx := context.Background()
	event := create(t, rt, organizer, "meetup", 4)

	for _, label := range []string{"a", "b"} {
		_, err := rt.Execute(ctx, ledger.AddressFromSeed(label), attendance.RegisterEvent{Event: event})
		require.NoError(t, err)
	}
	_, err := rt.Execute(ctx, ledger.AddressFromSeed("a"), attendance.MintNFT{Event: event, AttendanceCode: code})
	require.NoError(t, err)

	stats, err := svc.EventStats(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Capacity)
	assert.Equal(t, uint32(2), stats.Registered)
	assert.Equal(t, 1, stats.Attended)
	assert.Equal(t, 1, stats.CredentialsMinted)
	assert.InDelta(t, 0.5, stats.FillRate, 1e-9)
	assert.InDelta(t, 0.5, stats.ClaimRate, 1e-9)

	_, err = svc.EventStats(ctx, ledger.AddressFromSeed("missing"))
	assert.ErrorIs(t, err, attendance.ErrAccountNotInitialized)
}

func TestOrganizerSummary(t *testing.T) {
	rt, svc := setup(t)
	ctx := context.Background()
	quiet := create(t, rt, organizer, "quiet", 10)
	busy := create(t, rt, organizer, "busy", 10)
	create(t, rt, ledger.AddressFromSeed("someone-else"), "theirs", 10)

	for _, label := range []string{"a", "b", "c"} {
		_, err := rt.Execute(ctx, ledger.AddressFromSeed(label), attendance.RegisterEvent{Event: busy})
		require.NoError(t, err)
	}
	_, err := rt.Execute(ctx, ledger.AddressFromSeed("a"), attendance.RegisterEvent{Event: quiet})
	require.NoError(t, err)

	summary, err := svc.OrganizerSummary(ctx, organizer)
	require.NoError(t, err)
	require.Len(t, summary.Events, 2)
	assert.Equal(t, "busy", summary.Events[0].Name)
	assert.Equal(t, uint64(20), summary.TotalCapacity)
	assert.Equal(t, uint64(4), summary.TotalRegistered)
	assert.Zero(t, summary.OverallClaimRate)

	empty, err := svc.OrganizerSummary(ctx, ledger.AddressFromSeed("nobody"))
	require.NoError(t, err)
	assert.Empty(t, empty.Events)
}
