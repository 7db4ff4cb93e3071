package grpcserver

import (
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
)

func TestSchema_RegisteredForReflection(t *testing.T) {
	d, err := protoregistry.GlobalFiles.FindDescriptorByName(ServiceName)
	require.NoError(t, err)
	svc, ok := d.(protoreflect.ServiceDescriptor)
	require.True(t, ok)
	assert.Equal(t, ProtoFile, svc.ParentFile().Path())

	for _, m := range ServiceDesc.Methods {
		assert.NotNil(t, svc.Methods().ByName(protoreflect.Name(m.MethodName)), m.MethodName)
	}
	assert.Equal(t, svc.Methods().Len(), len(ServiceDesc.Methods))
}

// decodeAs pushes msg through the binary encoding into a fresh dynamic message.
func decodeAs(t *testing.T, msg proto.Message, name string) protoreflect.Message {
	t.Helper()
	b, err := proto.Marshal(msg)
	require.NoError(t, err)
	out := dynamicpb.NewMessage(moderationFile.Messages().ByName(protoreflect.Name(name)))
	require.NoError(t, proto.Unmarshal(b, out))
	return out
}

func TestWire_CatalogItemSurvivesEncoding(t *testing.T) {
	orig := int64(5900)
	now := time.Date(2026, 3, 1, 12, 0, 0, 1500, time.UTC)
	item := model.CatalogItem{
		ID: uuid.Must(uuid.NewV4()), VendorID: uuid.Must(uuid.NewV4()),
		Name: "Hoodie", Description: "warm", Price: 4900, OriginalPrice: &orig,
		Category: "hoodies", Images: []string{"a.jpg", "b.jpg"}, Sizes: []string{"M"},
		Status: model.StatusRejected, IsActive: true, RejectionReason: "blurry",
		ReviewedBy: uuid.Must(uuid.NewV4()), ReviewedAt: now, CreatedAt: now, UpdatedAt: now,
	}

	var got ItemResponse
	got.fromProto(decodeAs(t, (&ItemResponse{Item: item}).toProto(), "ItemResponse"))
	assert.Equal(t, item, got.Item)

	item.OriginalPrice, item.ReviewedBy, item.ReviewedAt = nil, uuid.Nil, time.Time{}
	item.Images, item.Sizes = nil, nil
	got = ItemResponse{}
	got.fromProto(decodeAs(t, (&ItemResponse{Item: item}).toProto(), "ItemResponse"))
	assert.Equal(t, item, got.Item)
}

func TestWire_BulkResultKeepsFailures(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	in := BulkResponse{Result: moderation.BulkResult{
		Requested: 3, Succeeded: 2,
		Failed: []moderation.BulkFailure{{ID: id, Message: "invalid transition"}},
	}}
	var out BulkResponse
	out.fromProto(decodeAs(t, in.toProto(), "BulkResult"))
	assert.Equal(t, in.Result, out.Result)
}
