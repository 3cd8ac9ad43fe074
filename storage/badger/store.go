// Package badger persists the DAG (accepted blocks and committed sub-DAGs)
// to a local badger/v2 key-value store so a restarted authority can recover
// its view of the DAG instead of starting from genesis (spec §8, recover()).
package badger

import (
	"encoding/binary"
	"fmt"

	bdg "github.com/dgraph-io/badger/v2"
	"github.com/golang/snappy"

	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/hash"
)

// Key-space layout. Every key is prefixed by a single byte tag so the four
// tables can share one badger instance without colliding.
const (
	tagBlockByRef       byte = 0x01 // round(8) || author(4) || digest(32) -> SignedBlock envelope
	tagBlockByAuthorRnd byte = 0x02 // author(4) || round(8) -> digest(32), secondary index
	tagCommitByIndex    byte = 0x03 // index(8) -> snappy-compressed commit envelope
	tagLastCommitInfo   byte = 0x04 // fixed key -> last committed index(8) || leader ref
)

var lastCommitInfoKey = []byte{tagLastCommitInfo}

// Store wraps a badger.DB with the DAG-shaped accessors the Core's recovery
// path and commit observer need. All writes happen inside a single
// WriteBatch per call so a crash mid-write never leaves the four tables
// inconsistent with each other.
type Store struct {
	db     *bdg.DB
	logger *logging.Logger
}

// Open opens (creating if necessary) a badger store rooted at dir.
func Open(dir string) (*Store, error) {
	logger := logging.GetLogger("storage/badger")
	opts := bdg.DefaultOptions(dir).WithLogger(newBadgerLogger("storage/badger"))
	db, err := bdg.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage/badger: open %s: %w", dir, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func blockRefKey(ref types.BlockRef) []byte {
	key := make([]byte, 1+8+4+hash.Size)
	key[0] = tagBlockByRef
	binary.BigEndian.PutUint64(key[1:9], uint64(ref.Round))
	binary.BigEndian.PutUint32(key[9:13], uint32(ref.Author))
	copy(key[13:], ref.Digest[:])
	return key
}

func authorRoundKey(author types.AuthorityIndex, round types.Round) []byte {
	key := make([]byte, 1+4+8)
	key[0] = tagBlockByAuthorRnd
	binary.BigEndian.PutUint32(key[1:5], uint32(author))
	binary.BigEndian.PutUint64(key[5:13], uint64(round))
	return key
}

func commitIndexKey(index types.CommitIndex) []byte {
	key := make([]byte, 1+8)
	key[0] = tagCommitByIndex
	binary.BigEndian.PutUint64(key[1:], uint64(index))
	return key
}

// PutBlocks durably writes a batch of accepted blocks plus their
// author/round secondary-index entries in a single atomic WriteBatch.
func (s *Store) PutBlocks(blocks []*types.VerifiedBlock) error {
	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for _, b := range blocks {
		ref := b.Reference()
		if err := batch.Set(blockRefKey(ref), b.Serialized()); err != nil {
			return fmt.Errorf("storage/badger: stage block %s: %w", ref, err)
		}
		if err := batch.Set(authorRoundKey(ref.Author, ref.Round), ref.Digest[:]); err != nil {
			return fmt.Errorf("storage/badger: stage author-round index %s: %w", ref, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return fmt.Errorf("storage/badger: flush blocks batch: %w", err)
	}
	return nil
}

// GetBlock looks up the raw SignedBlock envelope bytes for ref.
func (s *Store) GetBlock(ref types.BlockRef) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *bdg.Txn) error {
		item, err := txn.Get(blockRefKey(ref))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("storage/badger: get block %s: %w", ref, err)
	}
	return out, nil
}

// LoadAllBlocks scans the author/round secondary index in full and returns
// every durably accepted block as a VerifiedBlock. Used by dagstate.Load to
// rehydrate in-memory state from a prior run; callers don't re-verify these
// signatures since the store only ever holds blocks this validator already
// accepted once.
func (s *Store) LoadAllBlocks() ([]*types.VerifiedBlock, error) {
	var refs []types.BlockRef
	err := s.db.View(func(txn *bdg.Txn) error {
		it := txn.NewIterator(bdg.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{tagBlockByAuthorRnd}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			author := types.AuthorityIndex(binary.BigEndian.Uint32(key[1:5]))
			round := types.Round(binary.BigEndian.Uint64(key[5:13]))
			var digest hash.Hash
			if err := it.Item().Value(func(val []byte) error {
				copy(digest[:], val)
				return nil
			}); err != nil {
				return err
			}
			refs = append(refs, types.BlockRef{Round: round, Author: author, Digest: digest})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage/badger: scan author-round index: %w", err)
	}

	blocks := make([]*types.VerifiedBlock, 0, len(refs))
	for _, ref := range refs {
		envelope, err := s.GetBlock(ref)
		if err != nil {
			return nil, fmt.Errorf("storage/badger: load block %s: %w", ref, err)
		}
		signed, err := types.DecodeSignedBlock(envelope)
		if err != nil {
			return nil, fmt.Errorf("storage/badger: decode block %s: %w", ref, err)
		}
		blocks = append(blocks, types.NewVerifiedBlock(signed, envelope))
	}
	return blocks, nil
}

// GetLastBlockForAuthority scans the author/round secondary index backwards
// from maxRound and returns the digest of the highest round found at or
// below maxRound, or false if the author has no blocks in range.
func (s *Store) GetLastBlockForAuthority(author types.AuthorityIndex, maxRound types.Round) (types.Round, hash.Hash, bool) {
	var (
		foundRound types.Round
		digest     hash.Hash
		found      bool
	)
	_ = s.db.View(func(txn *bdg.Txn) error {
		opts := bdg.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := authorRoundKey(author, maxRound+1)
		prefix := []byte{tagBlockByAuthorRnd}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			a := types.AuthorityIndex(binary.BigEndian.Uint32(key[1:5]))
			if a != author {
				continue
			}
			r := types.Round(binary.BigEndian.Uint64(key[5:13]))
			if r > maxRound {
				continue
			}
			err := it.Item().Value(func(val []byte) error {
				copy(digest[:], val)
				return nil
			})
			if err != nil {
				return err
			}
			foundRound = r
			found = true
			return nil
		}
		return nil
	})
	return foundRound, digest, found
}

// PutCommit durably writes one committed sub-DAG and advances the
// last-commit-info pointer, atomically. The envelope is whatever the caller
// passes (commitobserver passes the committed leader's serialized
// SignedBlock, not the whole sub-DAG) and is stored snappy-compressed.
func (s *Store) PutCommit(index types.CommitIndex, envelope []byte, leader types.BlockRef) error {
	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	if err := batch.Set(commitIndexKey(index), snappy.Encode(nil, envelope)); err != nil {
		return fmt.Errorf("storage/badger: stage commit %d: %w", index, err)
	}
	info := encodeLastCommitInfo(index, leader)
	if err := batch.Set(lastCommitInfoKey, info); err != nil {
		return fmt.Errorf("storage/badger: stage last-commit-info: %w", err)
	}
	if err := batch.Flush(); err != nil {
		return fmt.Errorf("storage/badger: flush commit batch: %w", err)
	}
	return nil
}

// GetCommit returns the decompressed envelope bytes staged for index by a
// prior PutCommit call.
func (s *Store) GetCommit(index types.CommitIndex) ([]byte, error) {
	var compressed []byte
	err := s.db.View(func(txn *bdg.Txn) error {
		item, err := txn.Get(commitIndexKey(index))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("storage/badger: get commit %d: %w", index, err)
	}
	out, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("storage/badger: decompress commit %d: %w", index, err)
	}
	return out, nil
}

// LastCommitInfo returns the most recently committed index and leader ref,
// or (0, zero-ref, false) if nothing has been committed yet.
func (s *Store) LastCommitInfo() (types.CommitIndex, types.BlockRef, bool) {
	var (
		index  types.CommitIndex
		leader types.BlockRef
		found  bool
	)
	_ = s.db.View(func(txn *bdg.Txn) error {
		item, err := txn.Get(lastCommitInfoKey)
		if err == bdg.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			index, leader = decodeLastCommitInfo(val)
			found = true
			return nil
		})
	})
	return index, leader, found
}

func encodeLastCommitInfo(index types.CommitIndex, leader types.BlockRef) []byte {
	buf := make([]byte, 8+8+4+hash.Size)
	binary.BigEndian.PutUint64(buf[0:8], uint64(index))
	binary.BigEndian.PutUint64(buf[8:16], uint64(leader.Round))
	binary.BigEndian.PutUint32(buf[16:20], uint32(leader.Author))
	copy(buf[20:], leader.Digest[:])
	return buf
}

func decodeLastCommitInfo(buf []byte) (types.CommitIndex, types.BlockRef) {
	index := types.CommitIndex(binary.BigEndian.Uint64(buf[0:8]))
	var leader types.BlockRef
	leader.Round = types.Round(binary.BigEndian.Uint64(buf[8:16]))
	leader.Author = types.AuthorityIndex(binary.BigEndian.Uint32(buf[16:20]))
	copy(leader.Digest[:], buf[20:])
	return index, leader
}
