package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Account is the persisted form of a ledger record.
type Account struct {
	bun.BaseModel `bun:"table:accounts"`

	Address   string    `bun:"address,pk"`
	Owner     string    `bun:"owner,notnull"`
	Kind      string    `bun:"kind,notnull"`
	Allowance int64     `bun:"allowance,notnull"`
	Data      []byte    `bun:"data"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
