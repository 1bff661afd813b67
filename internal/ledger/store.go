package ledger

import (
	"context"
	"errors"
)

var (
	ErrAccountInUse    = errors.New("account already in use")
	ErrAccountNotFound = errors.New("account not found")
	ErrWriteConflict   = errors.New("record is locked by a concurrent transaction")
)

// Storage allowance charged per stored byte plus a fixed per-record overhead.
const (
	AllowancePerByte        = 6960
	AllowanceRecordOverhead = 128
)

// Account is one stored record.
type Account struct {
	Address   Address
	Owner     Address
	Kind      string
	Allowance uint64
	Data      []byte
}

// AllowanceFor is the storage allowance a record of size bytes carries.
func AllowanceFor(size int) uint64 {
	return uint64(AllowanceRecordOverhead+size) * AllowancePerByte
}

func (a Account) clone() Account {
	a.Data = append([]byte(nil), a.Data...)
	return a
}

// Tx is the view one transaction has of the store. Nothing it writes is
// visible to other transactions until the enclosing RunInTx commits.
type Tx interface {
	Get(ctx context.Context, addr Address) (*Account, error)
	// Create inserts acct and fails with ErrAccountInUse when the address is taken.
	Create(ctx context.Context, acct Account) error
	Put(ctx context.Context, acct Account) error
	// Close deletes the record and returns the allowance it held.
	Close(ctx context.Context, addr Address) (uint64, error)
	List(ctx context.Context, owner Address, kind string) ([]Account, error)
}

// Store runs all-or-nothing transactions: if fn returns an error every write is discarded.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Get(ctx context.Context, addr Address) (*Account, error)
	List(ctx context.Context, owner Address, kind string) ([]Account, error)
}
