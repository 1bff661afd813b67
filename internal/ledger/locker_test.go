package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedUnique(t *testing.T) {
	a, b := AddressFromSeed("a"), AddressFromSeed("b")
	out := SortedUnique([]Address{b, a, b, a})
	require.Len(t, out, 2)
	assert.Equal(t, SortedUnique([]Address{a, b}), out)
}

func TestLocalLockerConflicts(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	event, reg := AddressFromSeed("event"), AddressFromSeed("reg")

	require.NoError(t, l.LockRecords(ctx, []Address{event, reg}, "tx1"))
	assert.ErrorIs(t, l.LockRecords(ctx, []Address{event}, "tx2"), ErrWriteConflict)

	// A foreign owner cannot release tx1's locks.
	require.NoError(t, l.UnlockRecords(ctx, []Address{event}, "tx2"))
	assert.ErrorIs(t, l.LockRecords(ctx, []Address{event}, "tx2"), ErrWriteConflict)

	require.NoError(t, l.UnlockRecords(ctx, []Address{event, reg}, "tx1"))
	assert.NoError(t, l.LockRecords(ctx, []Address{event}, "tx2"))
}
