package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/tessellate-network/consensuscore/crypto/hash"
	"github.com/tessellate-network/consensuscore/crypto/signature"
)

var canonicalEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("types: building canonical CBOR encoder: %v", err))
	}
	return mode
}()

// Transaction is an opaque, already-admitted payload.
type Transaction []byte

// BlockV1 is the only wire version of the block envelope (§6). Every field
// participates in the deterministic, canonical CBOR encoding that backs the
// block's content digest.
type BlockV1 struct {
	_          struct{} `cbor:",toarray"`
	Epoch      uint64
	Round      Round
	Author     AuthorityIndex
	Timestamp  TimestampMs
	Ancestors  []BlockRef
	Transactions []Transaction
}

// NewBlockV1 assembles a block body. ancestors must already satisfy the
// quorum-of-parents invariant (enforced by the ancestor selector, not here).
func NewBlockV1(epoch uint64, round Round, author AuthorityIndex, timestamp TimestampMs, ancestors []BlockRef, txs []Transaction) *BlockV1 {
	return &BlockV1{
		Epoch:        epoch,
		Round:        round,
		Author:       author,
		Timestamp:    timestamp,
		Ancestors:    ancestors,
		Transactions: txs,
	}
}

// Serialize produces the deterministic byte encoding of the block body,
// used both as the signing payload and as part of the digest input.
func (b *BlockV1) Serialize() ([]byte, error) {
	buf, err := canonicalEncMode.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("types: serialize block: %w", err)
	}
	return buf, nil
}

// SignedBlock is a BlockV1 plus the author's signature over its serialized
// form.
type SignedBlock struct {
	_         struct{} `cbor:",toarray"`
	Block     BlockV1
	Signature signature.Signature
}

// NewSignedBlock signs block with signer and wraps the result.
func NewSignedBlock(block *BlockV1, signer signature.Signer) (*SignedBlock, error) {
	payload, err := block.Serialize()
	if err != nil {
		return nil, err
	}
	return &SignedBlock{
		Block:     *block,
		Signature: signer.Sign(payload),
	}, nil
}

// Serialize produces the deterministic byte encoding of the full envelope
// (body + signature), used as digest input and as the wire form forwarded
// to peers.
func (s *SignedBlock) Serialize() ([]byte, error) {
	buf, err := canonicalEncMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("types: serialize signed block: %w", err)
	}
	return buf, nil
}

// DecodeSignedBlock reverses Serialize: it decodes a wire envelope back into
// a SignedBlock, without verifying the signature (that's the caller's job —
// see SignedBlock.VerifyAgainst).
func DecodeSignedBlock(envelope []byte) (*SignedBlock, error) {
	var s SignedBlock
	if err := cbor.Unmarshal(envelope, &s); err != nil {
		return nil, fmt.Errorf("types: decode signed block: %w", err)
	}
	return &s, nil
}

// VerifyAgainst checks the embedded signature against pub. The Core itself
// never calls this (verification is the acceptance pipeline's job, §1/§6);
// it is exposed here because VerifiedBlock construction needs a trusted
// source of the verification tag, and tests exercise it directly.
func (s *SignedBlock) VerifyAgainst(pub signature.PublicKey) error {
	payload, err := s.Block.Serialize()
	if err != nil {
		return err
	}
	if !signature.Verify(pub, payload, s.Signature) {
		return fmt.Errorf("types: signature verification failed for block round=%d author=%d", s.Block.Round, s.Block.Author)
	}
	return nil
}

// VerifiedBlock is a SignedBlock the acceptance pipeline has already
// verified, with its serialized form and reference cached so the Core never
// re-serializes or re-hashes a block it already produced or accepted.
type VerifiedBlock struct {
	signed     SignedBlock
	serialized []byte
	ref        BlockRef
}

// NewVerifiedBlock wraps a SignedBlock whose verification precondition has
// already been satisfied by the caller (the accept path, or the Core
// itself for its own just-signed block).
func NewVerifiedBlock(signed *SignedBlock, serialized []byte) *VerifiedBlock {
	digest := hash.NewFromBlock(serialized)
	return &VerifiedBlock{
		signed:     *signed,
		serialized: serialized,
		ref: BlockRef{
			Round:  signed.Block.Round,
			Author: signed.Block.Author,
			Digest: digest,
		},
	}
}

// Reference returns the block's content-addressed BlockRef.
func (b *VerifiedBlock) Reference() BlockRef { return b.ref }

// Round returns the block's round.
func (b *VerifiedBlock) Round() Round { return b.ref.Round }

// Author returns the block's author.
func (b *VerifiedBlock) Author() AuthorityIndex { return b.ref.Author }

// Slot returns the (round, author) slot this block occupies.
func (b *VerifiedBlock) Slot() Slot { return b.ref.Slot() }

// TimestampMs returns the block's proposer-assigned timestamp.
func (b *VerifiedBlock) TimestampMs() TimestampMs { return b.signed.Block.Timestamp }

// Ancestors returns the block's ancestor list, self-parent first for own
// proposals (invariant 4).
func (b *VerifiedBlock) Ancestors() []BlockRef { return b.signed.Block.Ancestors }

// Transactions returns the block's transaction list.
func (b *VerifiedBlock) Transactions() []Transaction { return b.signed.Block.Transactions }

// Signed returns the underlying SignedBlock.
func (b *VerifiedBlock) Signed() *SignedBlock { return &b.signed }

// Serialized returns the cached wire bytes (SignedBlock envelope).
func (b *VerifiedBlock) Serialized() []byte { return b.serialized }

func (b *VerifiedBlock) String() string {
	return fmt.Sprintf("block(round=%d author=%d digest=%s ancestors=%d txs=%d)",
		b.ref.Round, b.ref.Author, b.ref.Digest, len(b.Ancestors()), len(b.Transactions()))
}
