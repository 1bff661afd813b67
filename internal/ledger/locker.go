package ledger

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// Locker serializes transactions whose writable records overlap. A failed
// acquisition returns ErrWriteConflict and holds nothing.
type Locker interface {
	LockRecords(ctx context.Context, addrs []Address, owner string) error
	UnlockRecords(ctx context.Context, addrs []Address, owner string) error
}

// SortedUnique orders addrs by bytes and drops duplicates, so every locker
// acquires records in the same order.
func SortedUnique(addrs []Address) []Address {
	out := append([]Address(nil), addrs...)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	n := 0
	for i, a := range out {
		if i > 0 && a == out[n-1] {
			continue
		}
		out[n] = a
		n++
	}
	return out[:n]
}

// LocalLocker is the in-process Locker used when no Redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[Address]string
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[Address]string)}
}

func (l *LocalLocker) LockRecords(ctx context.Context, addrs []Address, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	addrs = SortedUnique(addrs)
	for _, a := range addrs {
		if holder, ok := l.held[a]; ok && holder != owner {
			return ErrWriteConflict
		}
	}
	for _, a := range addrs {
		l.held[a] = owner
	}
	return nil
}

func (l *LocalLocker) UnlockRecords(ctx context.Context, addrs []Address, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range addrs {
		if l.held[a] == owner {
			delete(l.held, a)
		}
	}
	return nil
}
