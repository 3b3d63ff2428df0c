// Package token mints the opaque single-use credentials that correlate an
// inbound button press with a specific ledger row.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// 16 bytes of entropy, 32 hex chars on the wire.
const tokenSize = 16

// Token is an unguessable value plus the absolute instant it stops being
// accepted. The value carries no semantics: whether it is a language or a
// verification token is decided by which ledger index it matches.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer mints tokens. Now is swappable for tests and defaults to time.Now.
type Issuer struct {
	Now func() time.Time
}

func NewIssuer() *Issuer {
	return &Issuer{Now: time.Now}
}

// Mint returns a fresh token expiring ttl from now.
func (i *Issuer) Mint(ttl time.Duration) (Token, error) {
	b := make([]byte, tokenSize)

	if _, err := rand.Read(b); err != nil {
		return Token{}, err
	}

	return Token{
		Value:     hex.EncodeToString(b),
		ExpiresAt: i.Now().Add(ttl),
	}, nil
}
