package attendance

import (
	"context"
	"crypto/subtle"
	"strconv"

	"ms-attendance/internal/issuance"
)

// MintNFT redeems the attendance code for the caller's credential. All checks
// run before the first issuance call, and the registration is only marked
// minted once the whole call chain has succeeded.
func (p *Program) MintNFT(ctx context.Context, inv *Invocation, ix MintNFT) (*Result, error) {
	event, err := p.loadEvent(ctx, inv.Tx, ix.Event)
	if err != nil {
		return nil, err
	}
	regAddr, err := RegistrationAddress(p.ID, ix.Event, inv.Caller)
	if err != nil {
		return nil, err
	}
	reg, err := p.loadRegistration(ctx, inv.Tx, regAddr)
	if err != nil {
		return nil, err
	}
	if reg.Attendee != inv.Caller || reg.Event != ix.Event {
		return nil, ErrConstraintHasOne
	}

	if subtle.ConstantTimeCompare(ix.AttendanceCode[:], event.AttendanceCode[:]) != 1 {
		return nil, ErrInvalidAttendanceCode
	}
	if reg.CredentialMinted {
		return nil, ErrNftAlreadyMinted
	}

	name := event.Name + strconv.FormatUint(uint64(event.RegisteredAttendees), 10)
	uri := event.URI

	now := inv.Now.Unix()
	if now < event.StartTime || now > event.EndTime {
		return nil, ErrNotMintingTime
	}

	collection, collectionCap, err := p.signAsCollection(inv, event.Name)
	if err != nil {
		return nil, err
	}
	credential, credentialCap, err := p.signAs(inv, []byte(seedCredentialMint), ix.Event[:], inv.Caller[:])
	if err != nil {
		return nil, err
	}
	call := inv.call(collectionCap)

	if err := p.Issuance.InitializeMint(ctx, inv.call(credentialCap), credential, collection); err != nil {
		return nil, err
	}
	destination, err := p.Issuance.CreateAssociatedHolding(ctx, inv.Tx, inv.Caller, credential)
	if err != nil {
		return nil, err
	}
	if err := p.Issuance.Mint(ctx, call, credential, destination, 1); err != nil {
		return nil, err
	}

	inv.Log("creating metadata account")
	metadata, err := p.Issuance.WriteMetadata(ctx, call, credential, issuance.MetadataArgs{
		Name:      name,
		Symbol:    issuance.Symbol,
		URI:       uri,
		IsMutable: true,
	})
	if err != nil {
		return nil, err
	}

	inv.Log("creating master edition account")
	if _, err := p.Issuance.CreateMasterRecord(ctx, call, credential, 0); err != nil {
		return nil, err
	}

	inv.Log("verifying the collection...")
	if err := p.Issuance.VerifySizedCollectionItem(ctx, call, metadata, collection); err != nil {
		return nil, err
	}

	reg.CredentialMinted = true
	reg.Attended = true
	if err := p.put(ctx, inv.Tx, regAddr, KindRegistration, reg); err != nil {
		return nil, err
	}

	return &Result{
		EventAddress:        ix.Event,
		Event:               event,
		RegistrationAddress: regAddr,
		Registration:        reg,
		CredentialMint:      credential,
	}, nil
}
