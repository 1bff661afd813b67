// Package issuance is the token and metadata service the attendance program
// calls into. It writes its records through the caller's ledger transaction,
// so a failed call chain leaves nothing behind.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ms-attendance/internal/capability"
	"ms-attendance/internal/ledger"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	Symbol          = "TLT"
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

var (
	ErrInvalidMetadata    = errors.New("metadata field exceeds its maximum length")
	ErrWrongAccountKind   = errors.New("account is not the expected issuance record")
	ErrMintMismatch       = errors.New("holding belongs to a different mint")
	ErrInvalidSupply      = errors.New("master edition requires a supply of exactly one")
	ErrMissingMetadata    = errors.New("metadata account not initialized")
	ErrMissingEdition     = errors.New("collection master edition not initialized")
	ErrNotSizedCollection = errors.New("collection parent is not a sized collection")
	ErrCreatorNotFound    = errors.New("signer is not a creator of this metadata")
	ErrImmutableMetadata  = errors.New("metadata is not mutable")
	ErrSupplyOverflow     = errors.New("supply overflow")
)

// Verifier checks that a capability was issued for authority within txID.
type Verifier interface {
	Verify(c *capability.Capability, authority ledger.Address, txID string) error
}

// Call is one invocation: the transaction it runs in and the capability it is signed with.
type Call struct {
	Tx     ledger.Tx
	TxID   string
	Signer *capability.Capability
}

// Getter reads committed or in-transaction records.
type Getter interface {
	Get(ctx context.Context, addr ledger.Address) (*ledger.Account, error)
}

type Service struct {
	ProgramID ledger.Address
	Verifier  Verifier
}

func NewService(programID ledger.Address, verifier Verifier) *Service {
	return &Service{ProgramID: programID, Verifier: verifier}
}

func (s *Service) authorize(call Call, authority ledger.Address) error {
	return s.Verifier.Verify(call.Signer, authority, call.TxID)
}

// MetadataAddress is where the metadata for mint lives.
func (s *Service) MetadataAddress(mint ledger.Address) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(s.ProgramID, []byte("metadata"), s.ProgramID[:], mint[:])
	return addr, err
}

// EditionAddress is where the master edition for mint lives.
func (s *Service) EditionAddress(mint ledger.Address) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(s.ProgramID, []byte("metadata"), s.ProgramID[:], mint[:], []byte("edition"))
	return addr, err
}

// AssociatedHoldingAddress is the canonical holding of mint for owner.
func (s *Service) AssociatedHoldingAddress(owner, mint ledger.Address) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(s.ProgramID, []byte("associated"), owner[:], mint[:])
	return addr, err
}

// InitializeMint creates a zero-decimal mint. The signer must be the mint address itself.
func (s *Service) InitializeMint(ctx context.Context, call Call, mint, authority ledger.Address) error {
	if err := s.authorize(call, mint); err != nil {
		return err
	}
	return s.create(ctx, call.Tx, mint, KindMint, &Mint{
		Authority:       authority,
		FreezeAuthority: authority,
	})
}

// OpenHolding creates a holding at a program-derived address. The signer must be that address.
func (s *Service) OpenHolding(ctx context.Context, call Call, holding, mint, owner ledger.Address) error {
	if err := s.authorize(call, holding); err != nil {
		return err
	}
	return s.openHolding(ctx, call.Tx, holding, mint, owner)
}

// CreateAssociatedHolding creates owner's canonical holding for mint. It fails
// with ledger.ErrAccountInUse when the holding already exists.
func (s *Service) CreateAssociatedHolding(ctx context.Context, tx ledger.Tx, owner, mint ledger.Address) (ledger.Address, error) {
	addr, err := s.AssociatedHoldingAddress(owner, mint)
	if err != nil {
		return ledger.Address{}, err
	}
	return addr, s.openHolding(ctx, tx, addr, mint, owner)
}

func (s *Service) openHolding(ctx context.Context, tx ledger.Tx, holding, mint, owner ledger.Address) error {
	var m Mint
	if err := s.load(ctx, tx, mint, KindMint, &m); err != nil {
		return err
	}
	return s.create(ctx, tx, holding, KindHolding, &Holding{Mint: mint, Owner: owner})
}

// Mint issues amount units of mint into holding. The signer must be the mint authority.
func (s *Service) Mint(ctx context.Context, call Call, mint, holding ledger.Address, amount uint64) error {
	var m Mint
	if err := s.load(ctx, call.Tx, mint, KindMint, &m); err != nil {
		return err
	}
	if err := s.authorize(call, m.Authority); err != nil {
		return err
	}

	var h Holding
	if err := s.load(ctx, call.Tx, holding, KindHolding, &h); err != nil {
		return err
	}
	if h.Mint != mint {
		return ErrMintMismatch
	}
	if m.Supply > math.MaxUint64-amount || h.Amount > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	m.Supply += amount
	h.Amount += amount

	if err := s.put(ctx, call.Tx, mint, KindMint, &m); err != nil {
		return err
	}
	return s.put(ctx, call.Tx, holding, KindHolding, &h)
}

type MetadataArgs struct {
	Name              string
	Symbol            string
	URI               string
	Creators          []Creator
	CollectionDetails *CollectionDetails
	IsMutable         bool
}

// WriteMetadata creates the metadata record for mint. The signer must be the
// mint authority and becomes the update authority. Creators are stored unverified.
func (s *Service) WriteMetadata(ctx context.Context, call Call, mint ledger.Address, args MetadataArgs) (ledger.Address, error) {
	if len(args.Name) > MaxNameLength || len(args.Symbol) > MaxSymbolLength || len(args.URI) > MaxURILength {
		return ledger.Address{}, fmt.Errorf("%w: name %d, symbol %d, uri %d bytes",
			ErrInvalidMetadata, len(args.Name), len(args.Symbol), len(args.URI))
	}

	var m Mint
	if err := s.load(ctx, call.Tx, mint, KindMint, &m); err != nil {
		return ledger.Address{}, err
	}
	if err := s.authorize(call, m.Authority); err != nil {
		return ledger.Address{}, err
	}

	addr, err := s.MetadataAddress(mint)
	if err != nil {
		return ledger.Address{}, err
	}

	creators := make([]Creator, len(args.Creators))
	for i, c := range args.Creators {
		creators[i] = Creator{Address: c.Address, Share: c.Share}
	}
	md := &Metadata{
		Mint:              mint,
		UpdateAuthority:   m.Authority,
		Name:              args.Name,
		Symbol:            args.Symbol,
		URI:               args.URI,
		Creators:          creators,
		CollectionDetails: args.CollectionDetails,
		IsMutable:         args.IsMutable,
	}
	if len(md.Creators) == 0 {
		md.Creators = nil
	}
	return addr, s.create(ctx, call.Tx, addr, KindMetadata, md)
}

// CreateMasterRecord turns a one-unit mint into a master edition and hands its
// mint and freeze authority to the edition record, so no further units can be minted.
func (s *Service) CreateMasterRecord(ctx context.Context, call Call, mint ledger.Address, maxSupply uint64) (ledger.Address, error) {
	var m Mint
	if err := s.load(ctx, call.Tx, mint, KindMint, &m); err != nil {
		return ledger.Address{}, err
	}
	if err := s.authorize(call, m.Authority); err != nil {
		return ledger.Address{}, err
	}
	if m.Supply != 1 {
		return ledger.Address{}, fmt.Errorf("%w: supply is %d", ErrInvalidSupply, m.Supply)
	}

	metadataAddr, err := s.MetadataAddress(mint)
	if err != nil {
		return ledger.Address{}, err
	}
	var md Metadata
	if err := s.load(ctx, call.Tx, metadataAddr, KindMetadata, &md); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.Address{}, ErrMissingMetadata
		}
		return ledger.Address{}, err
	}
	if err := s.authorize(call, md.UpdateAuthority); err != nil {
		return ledger.Address{}, err
	}

	editionAddr, err := s.EditionAddress(mint)
	if err != nil {
		return ledger.Address{}, err
	}
	if err := s.create(ctx, call.Tx, editionAddr, KindMasterEdition, &MasterEdition{
		Mint:      mint,
		Supply:    0,
		MaxSupply: maxSupply,
	}); err != nil {
		return ledger.Address{}, err
	}

	m.Authority = editionAddr
	m.FreezeAuthority = editionAddr
	return editionAddr, s.put(ctx, call.Tx, mint, KindMint, &m)
}

// SignMetadata marks the signer's creator entry as verified.
func (s *Service) SignMetadata(ctx context.Context, call Call, metadata ledger.Address) error {
	var md Metadata
	if err := s.load(ctx, call.Tx, metadata, KindMetadata, &md); err != nil {
		return err
	}
	if call.Signer == nil {
		return capability.ErrUnauthorizedAuthority
	}
	idx := -1
	for i, c := range md.Creators {
		if c.Address == call.Signer.Authority {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrCreatorNotFound
	}
	if err := s.authorize(call, md.Creators[idx].Address); err != nil {
		return err
	}
	md.Creators[idx].Verified = true
	return s.put(ctx, call.Tx, metadata, KindMetadata, &md)
}

// VerifySizedCollectionItem sets child's collection to collectionMint, marks
// it verified and grows the parent's size by one. The signer must be the
// parent's update authority.
func (s *Service) VerifySizedCollectionItem(ctx context.Context, call Call, childMetadata, collectionMint ledger.Address) error {
	var child Metadata
	if err := s.load(ctx, call.Tx, childMetadata, KindMetadata, &child); err != nil {
		return err
	}
	if !child.IsMutable {
		return ErrImmutableMetadata
	}

	parentAddr, err := s.MetadataAddress(collectionMint)
	if err != nil {
		return err
	}
	var parent Metadata
	if err := s.load(ctx, call.Tx, parentAddr, KindMetadata, &parent); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ErrMissingMetadata
		}
		return err
	}
	if err := s.authorize(call, parent.UpdateAuthority); err != nil {
		return err
	}
	if err := s.authorize(call, child.UpdateAuthority); err != nil {
		return err
	}

	editionAddr, err := s.EditionAddress(collectionMint)
	if err != nil {
		return err
	}
	var edition MasterEdition
	if err := s.load(ctx, call.Tx, editionAddr, KindMasterEdition, &edition); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ErrMissingEdition
		}
		return err
	}
	if parent.CollectionDetails == nil {
		return ErrNotSizedCollection
	}
	if parent.CollectionDetails.Size == math.MaxUint64 {
		return ErrSupplyOverflow
	}

	child.Collection = &Collection{Key: collectionMint, Verified: true}
	parent.CollectionDetails.Size++

	if err := s.put(ctx, call.Tx, childMetadata, KindMetadata, &child); err != nil {
		return err
	}
	return s.put(ctx, call.Tx, parentAddr, KindMetadata, &parent)
}

// LoadMetadata reads the metadata record for mint.
func (s *Service) LoadMetadata(ctx context.Context, g Getter, mint ledger.Address) (*Metadata, error) {
	addr, err := s.MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	var md Metadata
	if err := s.load(ctx, g, addr, KindMetadata, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// LoadMint reads a mint record.
func (s *Service) LoadMint(ctx context.Context, g Getter, mint ledger.Address) (*Mint, error) {
	var m Mint
	if err := s.load(ctx, g, mint, KindMint, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadHolding reads a holding record.
func (s *Service) LoadHolding(ctx context.Context, g Getter, holding ledger.Address) (*Holding, error) {
	var h Holding
	if err := s.load(ctx, g, holding, KindHolding, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Service) load(ctx context.Context, g Getter, addr ledger.Address, kind string, v interface{}) error {
	acct, err := g.Get(ctx, addr)
	if err != nil {
		return err
	}
	if acct.Owner != s.ProgramID || acct.Kind != kind {
		return fmt.Errorf("%w: %s is %s", ErrWrongAccountKind, addr, acct.Kind)
	}
	if err := msgpack.Unmarshal(acct.Data, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, addr, err)
	}
	return nil
}

func (s *Service) create(ctx context.Context, tx ledger.Tx, addr ledger.Address, kind string, v interface{}) error {
	acct, err := s.encode(addr, kind, v)
	if err != nil {
		return err
	}
	return tx.Create(ctx, acct)
}

func (s *Service) put(ctx context.Context, tx ledger.Tx, addr ledger.Address, kind string, v interface{}) error {
	acct, err := s.encode(addr, kind, v)
	if err != nil {
		return err
	}
	return tx.Put(ctx, acct)
}

func (s *Service) encode(addr ledger.Address, kind string, v interface{}) (ledger.Account, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("encode %s %s: %w", kind, addr, err)
	}
	return ledger.Account{
		Address:   addr,
		Owner:     s.ProgramID,
		Kind:      kind,
		Allowance: ledger.AllowanceFor(len(data)),
		Data:      data,
	}, nil
}
