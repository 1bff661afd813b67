package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateIsInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := AddressFromSeed("program")
	acct := Account{Address: AddressFromSeed("a"), Owner: owner, Kind: "Event", Allowance: AllowanceFor(4), Data: []byte{1, 2, 3, 4}}

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Create(ctx, acct)
	}))

	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Create(ctx, acct)
	})
	assert.ErrorIs(t, err, ErrAccountInUse)

	got, err := store.Get(ctx, acct.Address)
	require.NoError(t, err)
	assert.Equal(t, acct, *got)
}

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := AddressFromSeed("program")
	first := Account{Address: AddressFromSeed("first"), Owner: owner, Kind: "Event", Data: []byte{1}}

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Create(ctx, first)
	}))

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		updated := first
		updated.Data = []byte{9}
		if err := tx.Put(ctx, updated); err != nil {
			return err
		}
		if err := tx.Create(ctx, Account{Address: AddressFromSeed("second"), Owner: owner}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, first.Address)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, got.Data)

	_, err = store.Get(ctx, AddressFromSeed("second"))
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryStoreCloseReturnsAllowance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	acct := Account{Address: AddressFromSeed("reg"), Owner: AddressFromSeed("program"), Allowance: AllowanceFor(76)}

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Create(ctx, acct)
	}))

	var reclaimed uint64
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		reclaimed, err = tx.Close(ctx, acct.Address)
		if err != nil {
			return err
		}
		// Closed records are gone for the rest of the transaction too.
		_, err = tx.Get(ctx, acct.Address)
		assert.ErrorIs(t, err, ErrAccountNotFound)
		return nil
	}))
	assert.Equal(t, AllowanceFor(76), reclaimed)

	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.Close(ctx, acct.Address)
		return err
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryStoreListSeesStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := AddressFromSeed("program")

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, label := range []string{"a", "b"} {
			if err := tx.Create(ctx, Account{Address: AddressFromSeed(label), Owner: owner, Kind: "Event"}); err != nil {
				return err
			}
		}
		return tx.Create(ctx, Account{Address: AddressFromSeed("r"), Owner: owner, Kind: "EventRegistration"})
	}))

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Close(ctx, AddressFromSeed("a")); err != nil {
			return err
		}
		if err := tx.Create(ctx, Account{Address: AddressFromSeed("c"), Owner: owner, Kind: "Event"}); err != nil {
			return err
		}
		events, err := tx.List(ctx, owner, "Event")
		require.NoError(t, err)
		assert.Len(t, events, 2)
		return nil
	}))

	all, err := store.List(ctx, owner, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := store.List(ctx, AddressFromSeed("someone-else"), "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
