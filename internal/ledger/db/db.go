// Package db is the bun-backed ledger store. Every account lives in one
// accounts table keyed by its base58 address.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-attendance/internal/ledger"
	"ms-attendance/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun       *bun.DB
	TxOptions *sql.TxOptions
}

var _ ledger.Store = (*DB)(nil)

// RunInTx commits fn's writes in one database transaction and rolls them back
// if fn fails. A serialization failure surfaces as ledger.ErrWriteConflict.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	err := d.Bun.RunInTx(ctx, d.TxOptions, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &accountTx{idb: tx})
	})
	if isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ledger.ErrWriteConflict, err)
	}
	return err
}

func (d *DB) Get(ctx context.Context, addr ledger.Address) (*ledger.Account, error) {
	return getAccount(ctx, d.Bun, addr)
}

func (d *DB) List(ctx context.Context, owner ledger.Address, kind string) ([]ledger.Account, error) {
	return listAccounts(ctx, d.Bun, owner, kind)
}

type accountTx struct {
	idb bun.IDB
}

func (t *accountTx) Get(ctx context.Context, addr ledger.Address) (*ledger.Account, error) {
	return getAccount(ctx, t.idb, addr)
}

func (t *accountTx) List(ctx context.Context, owner ledger.Address, kind string) ([]ledger.Account, error) {
	return listAccounts(ctx, t.idb, owner, kind)
}

// Create → insert-if-absent
func (t *accountTx) Create(ctx context.Context, acct ledger.Account) error {
	exists, err := t.idb.NewSelect().
		Model((*models.Account)(nil)).
		Where("address = ?", acct.Address.String()).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check account %s: %w", acct.Address, err)
	}
	if exists {
		return ledger.ErrAccountInUse
	}

	row := toRow(acct)
	if _, err := t.idb.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrAccountInUse
		}
		return fmt.Errorf("insert account %s: %w", acct.Address, err)
	}
	return nil
}

// Put → overwrite an existing account
func (t *accountTx) Put(ctx context.Context, acct ledger.Account) error {
	row := toRow(acct)
	res, err := t.idb.NewUpdate().
		Model(&row).
		Column("owner", "kind", "allowance", "data", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update account %s: %w", acct.Address, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

// Close → delete the account and hand back its allowance
func (t *accountTx) Close(ctx context.Context, addr ledger.Address) (uint64, error) {
	acct, err := getAccount(ctx, t.idb, addr)
	if err != nil {
		return 0, err
	}
	_, err = t.idb.NewDelete().
		Model((*models.Account)(nil)).
		Where("address = ?", addr.String()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete account %s: %w", addr, err)
	}
	return acct.Allowance, nil
}

func getAccount(ctx context.Context, idb bun.IDB, addr ledger.Address) (*ledger.Account, error) {
	var row models.Account
	err := idb.NewSelect().
		Model(&row).
		Where("address = ?", addr.String()).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account %s: %w", addr, err)
	}
	acct, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func listAccounts(ctx context.Context, idb bun.IDB, owner ledger.Address, kind string) ([]ledger.Account, error) {
	var rows []models.Account
	q := idb.NewSelect().
		Model(&rows).
		Where("owner = ?", owner.String())
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("address ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]ledger.Account, 0, len(rows))
	for _, row := range rows {
		acct, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

func toRow(acct ledger.Account) models.Account {
	return models.Account{
		Address:   acct.Address.String(),
		Owner:     acct.Owner.String(),
		Kind:      acct.Kind,
		Allowance: int64(acct.Allowance),
		Data:      acct.Data,
		UpdatedAt: time.Now().UTC(),
	}
}

func fromRow(row models.Account) (ledger.Account, error) {
	addr, err := ledger.ParseAddress(row.Address)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("stored address %q: %w", row.Address, err)
	}
	owner, err := ledger.ParseAddress(row.Owner)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("stored owner %q: %w", row.Owner, err)
	}
	return ledger.Account{
		Address:   addr,
		Owner:     owner,
		Kind:      row.Kind,
		Allowance: uint64(row.Allowance),
		Data:      row.Data,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && (pqErr.Code == "40001" || pqErr.Code == "40P01")
}
