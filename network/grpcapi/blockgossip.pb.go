// Code in this file is hand-written in the shape protoc-gen-go would produce
// for blockgossip.proto; no protoc run backs it, but it is wired exactly the
// way generated message types are: plain structs implementing the legacy
// proto.Message contract (Reset/String/ProtoMessage) that golang/protobuf
// and grpc-go both still accept.
package grpcapi

import (
	fmt "fmt"

	proto "github.com/golang/protobuf/proto"
)

// BlockRefMsg is the wire shape of a types.BlockRef.
type BlockRefMsg struct {
	Round                uint64 `protobuf:"varint,1,opt,name=round,proto3" json:"round,omitempty"`
	Author               uint32 `protobuf:"varint,2,opt,name=author,proto3" json:"author,omitempty"`
	Digest               []byte `protobuf:"bytes,3,opt,name=digest,proto3" json:"digest,omitempty"`
	XXX_unrecognized     []byte `json:"-"`
}

func (m *BlockRefMsg) Reset()         { *m = BlockRefMsg{} }
func (m *BlockRefMsg) String() string { return fmt.Sprintf("%+v", *m) }
func (*BlockRefMsg) ProtoMessage()    {}

// AddBlocksRequest carries a batch of already-signed block envelopes
// (SignedBlock, CBOR-serialized) for the peer gossip path.
type AddBlocksRequest struct {
	Envelopes            [][]byte `protobuf:"bytes,1,rep,name=envelopes,proto3" json:"envelopes,omitempty"`
	XXX_unrecognized     []byte   `json:"-"`
}

func (m *AddBlocksRequest) Reset()         { *m = AddBlocksRequest{} }
func (m *AddBlocksRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*AddBlocksRequest) ProtoMessage()    {}

// AddBlocksResponse reports the ancestor refs the Core is still missing
// after accepting everything it could from the request.
type AddBlocksResponse struct {
	MissingAncestors     []*BlockRefMsg `protobuf:"bytes,1,rep,name=missing_ancestors,json=missingAncestors,proto3" json:"missing_ancestors,omitempty"`
	XXX_unrecognized     []byte         `json:"-"`
}

func (m *AddBlocksResponse) Reset()         { *m = AddBlocksResponse{} }
func (m *AddBlocksResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*AddBlocksResponse) ProtoMessage()    {}

var _ proto.Message = (*BlockRefMsg)(nil)
var _ proto.Message = (*AddBlocksRequest)(nil)
var _ proto.Message = (*AddBlocksResponse)(nil)
