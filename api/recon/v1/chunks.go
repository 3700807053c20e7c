// Package reconv1 declares the recon.v1 gRPC services. Messages travel as
// google.protobuf.Struct envelopes carrying the same JSON documents as the
// REST API, so no generated message types are needed.
package reconv1

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FileChunksServiceName = "recon.v1.FileChunksService"

	FileChunksService_UploadFileChunk_FullMethodName = "/" + FileChunksServiceName + "/UploadFileChunk"
)

// FileChunksServiceServer is the server API for FileChunksService.
type FileChunksServiceServer interface {
	UploadFileChunk(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterFileChunksServiceServer(s grpc.ServiceRegistrar, srv FileChunksServiceServer) {
	s.RegisterService(&FileChunksService_ServiceDesc, srv)
}

func _FileChunksService_UploadFileChunk_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FileChunksServiceServer).UploadFileChunk(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FileChunksService_UploadFileChunk_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FileChunksServiceServer).UploadFileChunk(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// FileChunksService_ServiceDesc is the grpc.ServiceDesc for FileChunksService.
var FileChunksService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: FileChunksServiceName,
	HandlerType: (*FileChunksServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UploadFileChunk",
			Handler:    _FileChunksService_UploadFileChunk_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recon/v1/chunks.proto",
}

// FileChunksServiceClient is the client API for FileChunksService.
type FileChunksServiceClient interface {
	UploadFileChunk(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type fileChunksServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFileChunksServiceClient(cc grpc.ClientConnInterface) FileChunksServiceClient {
	return &fileChunksServiceClient{cc}
}

func (c *fileChunksServiceClient) UploadFileChunk(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FileChunksService_UploadFileChunk_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ToStruct converts any JSON-encodable value into a Struct envelope.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("struct envelope: %w", err)
	}
	return s, nil
}

// FromStruct decodes a Struct envelope into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
