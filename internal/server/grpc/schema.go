package grpcserver

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ProtoFile is the registered path of the moderation schema.
const ProtoFile = "storefront/v1/moderation.proto"

const protoPackage = "storefront.v1"

var (
	moderationFile    = buildSchema()
	moderationService = moderationFile.Services().ByName("Moderation")
)

type fieldSpec struct {
	name     string
	typ      descriptorpb.FieldDescriptorProto_Type
	msg      string
	repeated bool
}

func scalar(name string, t descriptorpb.FieldDescriptorProto_Type) fieldSpec {
	return fieldSpec{name: name, typ: t}
}

func list(name string) fieldSpec {
	return fieldSpec{name: name, typ: descriptorpb.FieldDescriptorProto_TYPE_STRING, repeated: true}
}

func msgField(name, typeName string, repeated bool) fieldSpec {
	return fieldSpec{name: name, typ: descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, msg: typeName, repeated: repeated}
}

// message numbers fields in declaration order.
func message(name string, fields ...fieldSpec) *descriptorpb.DescriptorProto {
	d := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		if f.repeated {
			label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
		}
		fd := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(int32(i + 1)),
			Label:  label.Enum(),
			Type:   f.typ.Enum(),
		}
		if f.msg != "" {
			fd.TypeName = proto.String(f.msg)
		}
		d.Field = append(d.Field, fd)
	}
	return d
}

func local(name string) string { return "." + protoPackage + "." + name }

func rpc(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(in),
		OutputType: proto.String(out),
	}
}

func fileProto() *descriptorpb.FileDescriptorProto {
	const (
		str   = descriptorpb.FieldDescriptorProto_TYPE_STRING
		i64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
		i32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
		flag  = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		ts    = ".google.protobuf.Timestamp"
		empty = ".google.protobuf.Empty"
	)
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ProtoFile),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			timestamppb.File_google_protobuf_timestamp_proto.Path(),
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
			emptypb.File_google_protobuf_empty_proto.Path(),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("CatalogItem",
				scalar("id", str), scalar("vendor_id", str), scalar("name", str),
				scalar("description", str), scalar("price", i64),
				msgField("original_price", ".google.protobuf.Int64Value", false),
				scalar("category", str), list("images"), list("sizes"),
				scalar("status", str), scalar("is_active", flag),
				scalar("rejection_reason", str), scalar("reviewed_by", str),
				msgField("reviewed_at", ts, false), msgField("created_at", ts, false),
				msgField("updated_at", ts, false)),
			message("ItemRequest", scalar("id", str)),
			message("RejectRequest", scalar("id", str), scalar("reason", str)),
			message("ItemResponse", msgField("item", local("CatalogItem"), false)),
			message("BulkRequest", list("ids"), scalar("reason", str)),
			message("BulkFailure", scalar("id", str), scalar("error", str)),
			message("BulkResult", scalar("requested", i32), scalar("succeeded", i32),
				msgField("failed", local("BulkFailure"), true)),
			message("QueueEntry", msgField("item", local("CatalogItem"), false), scalar("score", i32)),
			message("QueueResponse", msgField("entries", local("QueueEntry"), true)),
			message("VendorApprovalRequest", scalar("vendor_user_id", str), scalar("approved", flag)),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("Moderation"),
			Method: []*descriptorpb.MethodDescriptorProto{
				rpc("Approve", local("ItemRequest"), local("ItemResponse")),
				rpc("Reject", local("RejectRequest"), local("ItemResponse")),
				rpc("BulkApprove", local("BulkRequest"), local("BulkResult")),
				rpc("BulkReject", local("BulkRequest"), local("BulkResult")),
				rpc("Queue", empty, local("QueueResponse")),
				rpc("SetVendorApproval", local("VendorApprovalRequest"), empty),
			},
		}},
	}
}

// buildSchema compiles the descriptor and registers it globally so server
// reflection can serve it.
func buildSchema() protoreflect.FileDescriptor {
	fd, err := protodesc.NewFile(fileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("grpcserver: build %s: %v", ProtoFile, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("grpcserver: register %s: %v", ProtoFile, err))
	}
	return fd
}

func method(name string) protoreflect.MethodDescriptor {
	md := moderationService.Methods().ByName(protoreflect.Name(name))
	if md == nil {
		panic("grpcserver: unknown method " + name)
	}
	return md
}
