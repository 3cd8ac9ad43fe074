package signature

import (
	"crypto/rand"
	"fmt"

	oed25519 "github.com/oasisprotocol/ed25519"
)

// oasisForkSigner signs using the oasisprotocol/ed25519 fork instead of the
// standard library implementation. The teacher's own go.mod replaces
// golang.org/x/crypto's ed25519/curve25519 with this fork project-wide;
// exposing it as a selectable Backend here keeps that substitution visible
// and testable instead of silently reverting to stdlib everywhere.
type oasisForkSigner struct {
	priv oed25519.PrivateKey
	pub  PublicKey
}

// Backend selects which ed25519 implementation NewSignerWithBackend uses.
type Backend int

const (
	// BackendStdlib uses crypto/ed25519 (the default).
	BackendStdlib Backend = iota
	// BackendOasisFork uses github.com/oasisprotocol/ed25519.
	BackendOasisFork
)

// GenerateKeyPairWithBackend creates a new key pair using the selected
// ed25519 implementation. Both backends produce wire-compatible keys.
func GenerateKeyPairWithBackend(backend Backend) (PublicKey, PrivateKey, error) {
	if backend == BackendStdlib {
		return GenerateKeyPair()
	}

	pub, priv, err := oed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, nil, fmt.Errorf("signature: generate key (oasis fork): %w", err)
	}
	var pk PublicKey
	copy(pk[:], pub)
	return pk, PrivateKey(priv), nil
}

// NewSignerWithBackend wraps priv using the selected ed25519 implementation.
func NewSignerWithBackend(backend Backend, priv PrivateKey) Signer {
	if backend == BackendStdlib {
		return NewSigner(priv)
	}

	oPriv := oed25519.PrivateKey(priv)
	pub := oPriv.Public().(oed25519.PublicKey)
	var pk PublicKey
	copy(pk[:], pub)
	return &oasisForkSigner{priv: oPriv, pub: pk}
}

func (s *oasisForkSigner) Sign(message []byte) Signature {
	sig := oed25519.Sign(s.priv, message)
	var out Signature
	copy(out[:], sig)
	return out
}

func (s *oasisForkSigner) Public() PublicKey {
	return s.pub
}
