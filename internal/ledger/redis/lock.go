package redis

import (
	"context"
	"fmt"
	"time"

	"ms-attendance/internal/ledger"
	"ms-attendance/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix  = "record_lock:"
	defaultTTL = 30 * time.Second
)

// Deletes the lock only while it still belongs to the caller.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

var _ ledger.Locker = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{Client: client, TTL: ttl, Logger: log}
}

func lockKey(addr ledger.Address) string {
	return keyPrefix + addr.String()
}

// IsLocked reports whether a record is currently held by any transaction.
func (r *Redis) IsLocked(ctx context.Context, addr ledger.Address) (bool, error) {
	n, err := r.Client.Exists(ctx, lockKey(addr)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Lock a single record
func (r *Redis) LockRecord(ctx context.Context, addr ledger.Address, txID string) (bool, error) {
	return r.Client.SetNX(ctx, lockKey(addr), txID, r.TTL).Result()
}

// Unlock a single record
func (r *Redis) UnlockRecord(ctx context.Context, addr ledger.Address, txID string) error {
	err := unlockScript.Run(ctx, r.Client, []string{lockKey(addr)}, txID).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// LockRecords takes every lock in address order or none of them.
func (r *Redis) LockRecords(ctx context.Context, addrs []ledger.Address, txID string) error {
	var locked []ledger.Address
	release := func() {
		for _, l := range locked {
			_ = r.UnlockRecord(ctx, l, txID)
		}
	}

	for _, addr := range ledger.SortedUnique(addrs) {
		ok, err := r.LockRecord(ctx, addr, txID)
		if err != nil {
			release()
			return fmt.Errorf("lock record %s: %w", addr, err)
		}
		if !ok {
			release()
			r.Logger.Warn("REDIS", fmt.Sprintf("Record %s busy, rejecting transaction %s", addr, txID))
			return ledger.ErrWriteConflict
		}
		locked = append(locked, addr)
	}
	return nil
}

// Unlock multiple records
func (r *Redis) UnlockRecords(ctx context.Context, addrs []ledger.Address, txID string) error {
	var firstErr error
	for _, addr := range addrs {
		err := r.UnlockRecord(ctx, addr, txID)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
