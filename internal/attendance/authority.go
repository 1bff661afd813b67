package attendance

import (
	"crypto/sha256"

	"ms-attendance/internal/capability"
	"ms-attendance/internal/ledger"
)

const (
	seedEvent             = "event"
	seedAttendee          = "attendee"
	seedCollectionMint    = "collection_mint"
	seedCollectionHolding = "collection_associated_token"
	seedCredentialMint    = "nft_mint"
)

// EventAddress is where the event named name by creator is stored.
func EventAddress(programID, creator ledger.Address, name string) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(programID, []byte(seedEvent), creator[:], []byte(name))
	return addr, err
}

// RegistrationAddress is where attendee's registration for event is stored.
// Deriving it from the pair is what allows at most one registration each.
func RegistrationAddress(programID, event, attendee ledger.Address) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(programID, []byte(seedAttendee), event[:], attendee[:])
	return addr, err
}

// CollectionAuthority derives the identity of an event's credential collection.
// The same address is the collection mint and the authority that mints and
// verifies every credential in it.
func CollectionAuthority(programID ledger.Address, eventName string) (ledger.Address, uint8, error) {
	return ledger.FindProgramAddress(programID, []byte(seedCollectionMint), []byte(eventName))
}

// CollectionHoldingAddress holds the single collection unit minted at event creation.
func CollectionHoldingAddress(programID ledger.Address, eventName string) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(programID, []byte(seedCollectionHolding), []byte(eventName))
	return addr, err
}

// CredentialMintAddress is the mint of attendee's attendance credential for event.
func CredentialMintAddress(programID, event, attendee ledger.Address) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress(programID, []byte(seedCredentialMint), event[:], attendee[:])
	return addr, err
}

// AttendanceCodeFromPhrase turns a phrase announced at the event into the 32-byte code.
func AttendanceCodeFromPhrase(phrase string) [32]byte {
	return sha256.Sum256([]byte(phrase))
}

// signAs finds the bump for seeds and asks the signer for a capability over
// the resulting address, valid only inside inv's transaction.
func (p *Program) signAs(inv *Invocation, seeds ...[]byte) (ledger.Address, *capability.Capability, error) {
	addr, bump, err := ledger.FindProgramAddress(p.ID, seeds...)
	if err != nil {
		return ledger.Address{}, nil, err
	}
	grant, err := p.Signer.InvokeSigned(p.ID, inv.TxID, append(seeds, []byte{bump})...)
	if err != nil {
		return ledger.Address{}, nil, err
	}
	return addr, grant, nil
}

func (p *Program) signAsCollection(inv *Invocation, eventName string) (ledger.Address, *capability.Capability, error) {
	return p.signAs(inv, []byte(seedCollectionMint), []byte(eventName))
}
