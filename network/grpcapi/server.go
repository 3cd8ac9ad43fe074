// Package grpcapi exposes the Core's add_blocks entry point (§4.8) to peers
// over gRPC. It owns no consensus logic: it decodes wire envelopes, verifies
// signatures, and forwards the batch to the serializing Core call, same as
// any other in-process caller would.
package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/consensus"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

var logger = logging.GetLogger("network/grpcapi")

func grpcUnimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

// Committee resolves an AuthorityIndex to the public key a gossip envelope
// claims to be signed by, so the server can verify it before handing the
// block to the Core.
type Committee interface {
	Authority(idx types.AuthorityIndex) (types.Authority, bool)
}

// Server implements BlockGossipServer over a consensus.Core. The Core is not
// internally synchronized (§5), so Server funnels every AddBlocks call
// through the single worker goroutine started by NewServer; concurrent gRPC
// requests reach the Core one at a time.
type Server struct {
	UnimplementedBlockGossipServer

	core      *consensus.Core
	committee Committee
	requests  chan addBlocksJob
}

type addBlocksJob struct {
	batch []*types.VerifiedBlock
	resp  chan addBlocksResult
}

type addBlocksResult struct {
	missing map[types.BlockRef]struct{}
	err     error
}

// NewServer builds a Server over core, serializing every AddBlocks call
// through a single goroutine so concurrent gRPC requests never violate the
// Core's single-logical-worker contract.
func NewServer(core *consensus.Core, committee Committee) *Server {
	s := &Server{core: core, committee: committee, requests: make(chan addBlocksJob)}
	go s.worker()
	return s
}

func (s *Server) worker() {
	for job := range s.requests {
		missing, err := s.core.AddBlocks(job.batch)
		job.resp <- addBlocksResult{missing: missing, err: err}
	}
}

// AddBlocks decodes and verifies each envelope, then forwards the batch to
// the Core's single-worker queue.
func (s *Server) AddBlocks(ctx context.Context, req *AddBlocksRequest) (*AddBlocksResponse, error) {
	batch := make([]*types.VerifiedBlock, 0, len(req.Envelopes))
	for _, raw := range req.Envelopes {
		block, err := s.decodeAndVerify(raw)
		if err != nil {
			logger.Warn("rejected gossiped block", "err", err)
			return nil, status.Errorf(codes.InvalidArgument, "grpcapi: %v", err)
		}
		batch = append(batch, block)
	}

	resp := make(chan addBlocksResult, 1)
	select {
	case s.requests <- addBlocksJob{batch: batch, resp: resp}:
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}

	result := <-resp
	if result.err != nil {
		return nil, status.Errorf(codes.Internal, "grpcapi: add_blocks: %v", result.err)
	}

	out := &AddBlocksResponse{}
	for ref := range result.missing {
		out.MissingAncestors = append(out.MissingAncestors, &BlockRefMsg{
			Round:  uint64(ref.Round),
			Author: uint32(ref.Author),
			Digest: ref.Digest[:],
		})
	}
	return out, nil
}

func (s *Server) decodeAndVerify(envelope []byte) (*types.VerifiedBlock, error) {
	signed, err := decodeSignedBlock(envelope)
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	author, ok := s.committee.Authority(types.AuthorityIndex(signed.Block.Author))
	if !ok {
		return nil, fmt.Errorf("unknown author %d", signed.Block.Author)
	}
	if err := signed.VerifyAgainst(author.PublicKey); err != nil {
		return nil, err
	}
	return types.NewVerifiedBlock(signed, envelope), nil
}

func decodeSignedBlock(envelope []byte) (*types.SignedBlock, error) {
	return types.DecodeSignedBlock(envelope)
}
