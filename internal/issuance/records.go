package issuance

import "ms-attendance/internal/ledger"

const (
	KindMint          = "Mint"
	KindHolding       = "Holding"
	KindMetadata      = "Metadata"
	KindMasterEdition = "MasterEdition"
)

type Mint struct {
	Authority       ledger.Address `msgpack:"authority"`
	FreezeAuthority ledger.Address `msgpack:"freeze_authority"`
	Decimals        uint8          `msgpack:"decimals"`
	Supply          uint64         `msgpack:"supply"`
}

// Holding is a balance of one mint held by Owner.
type Holding struct {
	Mint   ledger.Address `msgpack:"mint"`
	Owner  ledger.Address `msgpack:"owner"`
	Amount uint64         `msgpack:"amount"`
}

type Creator struct {
	Address  ledger.Address `msgpack:"address"`
	Verified bool           `msgpack:"verified"`
	Share    uint8          `msgpack:"share"`
}

type Collection struct {
	Key      ledger.Address `msgpack:"key"`
	Verified bool           `msgpack:"verified"`
}

// CollectionDetails marks a metadata record as a sized collection parent.
type CollectionDetails struct {
	Size uint64 `msgpack:"size"`
}

type Metadata struct {
	Mint              ledger.Address     `msgpack:"mint"`
	UpdateAuthority   ledger.Address     `msgpack:"update_authority"`
	Name              string             `msgpack:"name"`
	Symbol            string             `msgpack:"symbol"`
	URI               string             `msgpack:"uri"`
	Creators          []Creator          `msgpack:"creators,omitempty"`
	Collection        *Collection        `msgpack:"collection,omitempty"`
	CollectionDetails *CollectionDetails `msgpack:"collection_details,omitempty"`
	IsMutable         bool               `msgpack:"is_mutable"`
}

type MasterEdition struct {
	Mint      ledger.Address `msgpack:"mint"`
	Supply    uint64         `msgpack:"supply"`
	MaxSupply uint64         `msgpack:"max_supply"`
}
