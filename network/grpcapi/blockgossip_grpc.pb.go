// Hand-written in the shape protoc-gen-go-grpc produces: a client interface,
// a server interface, and the grpc.ServiceDesc tying method names to Go
// handlers. See blockgossip.pb.go for the message types.
package grpcapi

import (
	context "context"

	grpc "google.golang.org/grpc"
)

// BlockGossipClient is the client API for BlockGossip.
type BlockGossipClient interface {
	AddBlocks(ctx context.Context, in *AddBlocksRequest, opts ...grpc.CallOption) (*AddBlocksResponse, error)
}

type blockGossipClient struct {
	cc grpc.ClientConnInterface
}

// NewBlockGossipClient wraps cc as a BlockGossipClient.
func NewBlockGossipClient(cc grpc.ClientConnInterface) BlockGossipClient {
	return &blockGossipClient{cc}
}

func (c *blockGossipClient) AddBlocks(ctx context.Context, in *AddBlocksRequest, opts ...grpc.CallOption) (*AddBlocksResponse, error) {
	out := new(AddBlocksResponse)
	err := c.cc.Invoke(ctx, "/consensuscore.grpcapi.BlockGossip/AddBlocks", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BlockGossipServer is the server API for BlockGossip.
type BlockGossipServer interface {
	AddBlocks(context.Context, *AddBlocksRequest) (*AddBlocksResponse, error)
}

// UnimplementedBlockGossipServer can be embedded for forward compatibility.
type UnimplementedBlockGossipServer struct{}

func (UnimplementedBlockGossipServer) AddBlocks(context.Context, *AddBlocksRequest) (*AddBlocksResponse, error) {
	return nil, grpcUnimplemented("AddBlocks")
}

// RegisterBlockGossipServer registers srv on s.
func RegisterBlockGossipServer(s grpc.ServiceRegistrar, srv BlockGossipServer) {
	s.RegisterService(&_BlockGossip_serviceDesc, srv)
}

func _BlockGossip_AddBlocks_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddBlocksRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlockGossipServer).AddBlocks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/consensuscore.grpcapi.BlockGossip/AddBlocks",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlockGossipServer).AddBlocks(ctx, req.(*AddBlocksRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _BlockGossip_serviceDesc = grpc.ServiceDesc{
	ServiceName: "consensuscore.grpcapi.BlockGossip",
	HandlerType: (*BlockGossipServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AddBlocks",
			Handler:    _BlockGossip_AddBlocks_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blockgossip.proto",
}
