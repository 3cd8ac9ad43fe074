// Package hash implements the domain-separated content digest used to derive
// BlockRef identifiers from a block's serialized, signed form.
package hash

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest size in bytes.
const Size = 32

// Hash is a fixed-size content digest.
type Hash [Size]byte

// domainBlock is prepended to the serialized SignedBlock before hashing so
// that block digests can never collide with digests computed elsewhere in
// the system (e.g. a future transaction-level hash) even over identical byte
// strings.
var domainBlock = []byte("consensuscore/block/v1")

// NewFromBlock computes the domain-separated digest of a serialized,
// signed block.
func NewFromBlock(serializedSignedBlock []byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an invalid key, and we pass none.
		panic(fmt.Sprintf("hash: blake2b init: %v", err))
	}
	h.Write(domainBlock)
	h.Write(serializedSignedBlock)

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether h is the zero digest.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String renders the digest as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Compare implements a total order over Hash, used to break ties in
// BlockRef's (round, author, digest) lexicographic ordering.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler for use in CBOR/JSON maps.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("hash: invalid hex: %w", err)
	}
	if len(b) != Size {
		return fmt.Errorf("hash: invalid length %d", len(b))
	}
	copy(h[:], b)
	return nil
}
