package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

type inbound[T any] interface {
	*T
	fromProto(protoreflect.Message)
}

type outbound interface {
	toProto() proto.Message
}

// handler adapts a typed method to grpc.MethodDesc. Requests are decoded by
// the default proto codec into a dynamic message of the method's input type.
func handler[Req any, PReq inbound[Req], Resp outbound](name string, call func(*Server, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	in := method(name).Input()
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			msg := dynamicpb.NewMessage(in)
			if err := dec(msg); err != nil {
				return nil, err
			}
			req := PReq(new(Req))
			req.fromProto(msg)
			s := srv.(*Server)
			run := func(ctx context.Context, r any) (any, error) {
				resp, err := call(s, ctx, r.(PReq))
				if err != nil {
					return nil, err
				}
				return resp.toProto(), nil
			}
			if interceptor == nil {
				return run(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPrefix + name}
			return interceptor(ctx, req, info, run)
		},
	}
}

type moderationServer interface {
	Approve(context.Context, *ItemRequest) (*ItemResponse, error)
	Reject(context.Context, *RejectRequest) (*ItemResponse, error)
	BulkApprove(context.Context, *BulkRequest) (*BulkResponse, error)
	BulkReject(context.Context, *BulkRequest) (*BulkResponse, error)
	Queue(context.Context, *QueueRequest) (*QueueResponse, error)
	SetVendorApproval(context.Context, *VendorApprovalRequest) (*Empty, error)
}

var _ moderationServer = (*Server)(nil)

// ServiceDesc describes storefront.v1.Moderation.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*moderationServer)(nil),
	Methods: []grpc.MethodDesc{
		handler("Approve", (*Server).Approve),
		handler("Reject", (*Server).Reject),
		handler("BulkApprove", (*Server).BulkApprove),
		handler("BulkReject", (*Server).BulkReject),
		handler("Queue", (*Server).Queue),
		handler("SetVendorApproval", (*Server).SetVendorApproval),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ProtoFile,
}
