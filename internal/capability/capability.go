// Package capability issues short-lived signed tokens that let a program act
// as one of its derived addresses for the duration of a single transaction.
package capability

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"ms-attendance/internal/ledger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 5 * time.Second

var ErrUnauthorizedAuthority = errors.New("capability does not authorize this authority")

// Capability proves that Program may sign as Authority within transaction TxID.
type Capability struct {
	Authority ledger.Address
	Program   ledger.Address
	TxID      string
	Token     string
	ExpiresAt time.Time
}

type claims struct {
	Authority string `json:"authority"`
	Program   string `json:"program"`
	TxID      string `json:"txn"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer signing with secret. An empty secret gets a
// random per-process key, so tokens never outlive the process.
func NewIssuer(secret []byte, ttl time.Duration, now func() time.Time) *Issuer {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("capability: read random key: %v", err))
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: secret, ttl: ttl, now: now}
}

// InvokeSigned re-derives the authority from seeds (bump included) and, if it
// is a valid program address, returns a capability scoped to it and txID.
func (i *Issuer) InvokeSigned(programID ledger.Address, txID string, seeds ...[]byte) (*Capability, error) {
	authority, err := ledger.CreateProgramAddress(programID, seeds...)
	if err != nil {
		return nil, err
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Authority: authority.String(),
		Program:   programID.String(),
		TxID:      txID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign capability: %w", err)
	}

	return &Capability{
		Authority: authority,
		Program:   programID,
		TxID:      txID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the token signature and expiry and that it was issued for
// authority within txID.
func (i *Issuer) Verify(c *Capability, authority ledger.Address, txID string) error {
	if c == nil {
		return fmt.Errorf("%w: missing capability", ErrUnauthorizedAuthority)
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(c.Token, &parsed, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorizedAuthority, err)
	}

	if parsed.Authority != authority.String() {
		return fmt.Errorf("%w: signed for %s, not %s", ErrUnauthorizedAuthority, parsed.Authority, authority)
	}
	if parsed.TxID != txID {
		return fmt.Errorf("%w: issued for another transaction", ErrUnauthorizedAuthority)
	}
	return nil
}
