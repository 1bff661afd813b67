package ledger

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps accounts in a map. Transactions run one at a time.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[Address]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[Address]Account)}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{base: s.accounts, writes: make(map[Address]*Account)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for addr, acct := range tx.writes {
		if acct == nil {
			delete(s.accounts, addr)
			continue
		}
		s.accounts[addr] = *acct
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, addr Address) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := acct.clone()
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context, owner Address, kind string) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listAccounts(s.accounts, nil, owner, kind), nil
}

type memoryTx struct {
	base   map[Address]Account
	writes map[Address]*Account // nil value marks a deletion
}

func (t *memoryTx) lookup(addr Address) (Account, bool) {
	if acct, staged := t.writes[addr]; staged {
		if acct == nil {
			return Account{}, false
		}
		return *acct, true
	}
	acct, ok := t.base[addr]
	return acct, ok
}

func (t *memoryTx) Get(ctx context.Context, addr Address) (*Account, error) {
	acct, ok := t.lookup(addr)
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := acct.clone()
	return &out, nil
}

func (t *memoryTx) Create(ctx context.Context, acct Account) error {
	if _, ok := t.lookup(acct.Address); ok {
		return ErrAccountInUse
	}
	stored := acct.clone()
	t.writes[acct.Address] = &stored
	return nil
}

func (t *memoryTx) Put(ctx context.Context, acct Account) error {
	if _, ok := t.lookup(acct.Address); !ok {
		return ErrAccountNotFound
	}
	stored := acct.clone()
	t.writes[acct.Address] = &stored
	return nil
}

func (t *memoryTx) Close(ctx context.Context, addr Address) (uint64, error) {
	acct, ok := t.lookup(addr)
	if !ok {
		return 0, ErrAccountNotFound
	}
	t.writes[addr] = nil
	return acct.Allowance, nil
}

func (t *memoryTx) List(ctx context.Context, owner Address, kind string) ([]Account, error) {
	return listAccounts(t.base, t.writes, owner, kind), nil
}

func listAccounts(base map[Address]Account, writes map[Address]*Account, owner Address, kind string) []Account {
	var out []Account
	match := func(a Account) bool {
		return a.Owner == owner && (kind == "" || a.Kind == kind)
	}
	for addr, acct := range base {
		if _, staged := writes[addr]; staged {
			continue
		}
		if match(acct) {
			out = append(out, acct.clone())
		}
	}
	for _, acct := range writes {
		if acct != nil && match(*acct) {
			out = append(out, acct.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}
