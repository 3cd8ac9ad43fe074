// Package signature implements the block-signing Signer contract consumed
// by the Core (§6): an opaque Sign(bytes) Signature operation plus the
// verification path used by the (out of scope) acceptance pipeline.
package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// PublicKey is an ed25519 public key.
type PublicKey [ed25519.PublicKeySize]byte

// Signature is an ed25519 signature.
type Signature [ed25519.SignatureSize]byte

// PrivateKey is an ed25519 private key (includes the public half, as is
// conventional for ed25519).
type PrivateKey []byte

// String renders the public key as base58, matching the wallet tooling
// convention used elsewhere for human-facing key display.
func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

// Hex renders the public key as lowercase hex, used in log keyvals where
// base58's variable width is inconvenient to grep.
func (p PublicKey) Hex() string {
	return hex.EncodeToString(p[:])
}

// Equal reports whether two public keys are identical.
func (p PublicKey) Equal(o PublicKey) bool {
	return p == o
}

// Signer is the capability consumed by the proposer (C4): sign a serialized
// block and return the resulting Signature. Implementations are plugged in
// at Core construction time; the Core never introspects which one it has.
type Signer interface {
	Sign(message []byte) Signature
	Public() PublicKey
}

// GenerateKeyPair creates a new ed25519 key pair.
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, nil, fmt.Errorf("signature: generate key: %w", err)
	}
	var pk PublicKey
	copy(pk[:], pub)
	return pk, PrivateKey(priv), nil
}

type stdlibSigner struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

// NewSigner wraps a raw ed25519 private key as a Signer.
func NewSigner(priv PrivateKey) Signer {
	pub := ed25519.PrivateKey(priv).Public().(ed25519.PublicKey)
	var pk PublicKey
	copy(pk[:], pub)
	return &stdlibSigner{priv: ed25519.PrivateKey(priv), pub: pk}
}

func (s *stdlibSigner) Sign(message []byte) Signature {
	sig := ed25519.Sign(s.priv, message)
	var out Signature
	copy(out[:], sig)
	return out
}

func (s *stdlibSigner) Public() PublicKey {
	return s.pub
}

// Verify checks that sig is a valid signature by pub over message.
func Verify(pub PublicKey, message []byte, sig Signature) bool {
	return ed25519.Verify(pub[:], message, sig[:])
}
