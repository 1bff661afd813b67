package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"ms-attendance/internal/ledger"
	"ms-attendance/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-memory Redis and a client pointed at it.
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedis(client, 30*time.Second, logger.Discard()), mr
}

func TestLockRecordsAllOrNothing(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	event := ledger.AddressFromSeed("event")
	reg := ledger.AddressFromSeed("registration")

	require.NoError(t, r.LockRecords(ctx, []ledger.Address{reg}, "tx-a"))

	err := r.LockRecords(ctx, []ledger.Address{event, reg}, "tx-b")
	assert.ErrorIs(t, err, ledger.ErrWriteConflict)
	assert.False(t, mr.Exists(lockKey(event)), "partial locks are released")

	owner, err := mr.Get(lockKey(reg))
	require.NoError(t, err)
	assert.Equal(t, "tx-a", owner)
}

func TestLockRecordsUsesTTL(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	event := ledger.AddressFromSeed("event")

	require.NoError(t, r.LockRecords(ctx, []ledger.Address{event}, "tx-a"))
	assert.Equal(t, 30*time.Second, mr.TTL(lockKey(event)))

	mr.FastForward(31 * time.Second)
	locked, err := r.IsLocked(ctx, event)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.NoError(t, r.LockRecords(ctx, []ledger.Address{event}, "tx-b"))
}

func TestUnlockRecordsOnlyReleasesOwnLocks(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()
	event := ledger.AddressFromSeed("event")

	require.NoError(t, r.LockRecords(ctx, []ledger.Address{event}, "tx-a"))
	require.NoError(t, r.UnlockRecords(ctx, []ledger.Address{event}, "tx-b"))

	locked, err := r.IsLocked(ctx, event)
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, r.UnlockRecords(ctx, []ledger.Address{event}, "tx-a"))
	locked, err = r.IsLocked(ctx, event)
	require.NoError(t, err)
	assert.False(t, locked)

	// Unlocking something that is not held is a no-op.
	assert.NoError(t, r.UnlockRecords(ctx, []ledger.Address{event}, "tx-a"))
}

func TestConcurrentLockersOnlyOneWins(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()
	event := ledger.AddressFromSeed("event")

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := r.LockRecords(ctx, []ledger.Address{event}, string(rune('a'+id))); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
