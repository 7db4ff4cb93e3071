package grpcserver

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
)

// Messages of storefront.v1.Moderation. Each converts to and from the
// dynamic protobuf message described in schema.go.

type ItemRequest struct{ ID string }

type RejectRequest struct {
	ID     string
	Reason string
}

type ItemResponse struct{ Item model.CatalogItem }

type BulkRequest struct {
	IDs    []string
	Reason string
}

type BulkResponse struct{ Result moderation.BulkResult }

type QueueRequest struct{}

type QueueResponse struct{ Entries []moderation.QueueEntry }

type VendorApprovalRequest struct {
	VendorUserID string
	Approved     bool
}

type Empty struct{}

func newMessage(name string) protoreflect.Message {
	md := moderationFile.Messages().ByName(protoreflect.Name(name))
	return dynamicpb.NewMessage(md)
}

func field(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("grpcserver: " + string(m.Descriptor().FullName()) + " has no field " + name)
	}
	return fd
}

func getStr(m protoreflect.Message, name string) string { return m.Get(field(m, name)).String() }

func setStr(m protoreflect.Message, name, v string) {
	m.Set(field(m, name), protoreflect.ValueOfString(v))
}

func getInt(m protoreflect.Message, name string) int64 { return m.Get(field(m, name)).Int() }

func getStrs(m protoreflect.Message, name string) []string {
	l := m.Get(field(m, name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

func setStrs(m protoreflect.Message, name string, vs []string) {
	if len(vs) == 0 {
		return
	}
	l := m.Mutable(field(m, name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfString(v))
	}
}

func setTime(m protoreflect.Message, name string, t time.Time) {
	if t.IsZero() {
		return
	}
	m.Set(field(m, name), protoreflect.ValueOfMessage(timestamppb.New(t).ProtoReflect()))
}

// getTime reads a google.protobuf.Timestamp; decoded nested messages are dynamic.
func getTime(m protoreflect.Message, name string) time.Time {
	fd := field(m, name)
	if !m.Has(fd) {
		return time.Time{}
	}
	ts := m.Get(fd).Message()
	pb := &timestamppb.Timestamp{Seconds: getInt(ts, "seconds"), Nanos: int32(getInt(ts, "nanos"))}
	return pb.AsTime()
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func putItem(m protoreflect.Message, c model.CatalogItem) {
	setStr(m, "id", idString(c.ID))
	setStr(m, "vendor_id", idString(c.VendorID))
	setStr(m, "name", c.Name)
	setStr(m, "description", c.Description)
	m.Set(field(m, "price"), protoreflect.ValueOfInt64(c.Price))
	if c.OriginalPrice != nil {
		m.Set(field(m, "original_price"), protoreflect.ValueOfMessage(wrapperspb.Int64(*c.OriginalPrice).ProtoReflect()))
	}
	setStr(m, "category", c.Category)
	setStrs(m, "images", c.Images)
	setStrs(m, "sizes", c.Sizes)
	setStr(m, "status", string(c.Status))
	m.Set(field(m, "is_active"), protoreflect.ValueOfBool(c.IsActive))
	setStr(m, "rejection_reason", c.RejectionReason)
	setStr(m, "reviewed_by", idString(c.ReviewedBy))
	setTime(m, "reviewed_at", c.ReviewedAt)
	setTime(m, "created_at", c.CreatedAt)
	setTime(m, "updated_at", c.UpdatedAt)
}

func readItem(m protoreflect.Message) model.CatalogItem {
	c := model.CatalogItem{
		ID:              uuid.FromStringOrNil(getStr(m, "id")),
		VendorID:        uuid.FromStringOrNil(getStr(m, "vendor_id")),
		Name:            getStr(m, "name"),
		Description:     getStr(m, "description"),
		Price:           getInt(m, "price"),
		Category:        getStr(m, "category"),
		Images:          getStrs(m, "images"),
		Sizes:           getStrs(m, "sizes"),
		Status:          model.ModerationStatus(getStr(m, "status")),
		IsActive:        m.Get(field(m, "is_active")).Bool(),
		RejectionReason: getStr(m, "rejection_reason"),
		ReviewedBy:      uuid.FromStringOrNil(getStr(m, "reviewed_by")),
		ReviewedAt:      getTime(m, "reviewed_at"),
		CreatedAt:       getTime(m, "created_at"),
		UpdatedAt:       getTime(m, "updated_at"),
	}
	if fd := field(m, "original_price"); m.Has(fd) {
		v := getInt(m.Get(fd).Message(), "value")
		c.OriginalPrice = &v
	}
	return c
}

func (r *ItemRequest) toProto() proto.Message {
	m := newMessage("ItemRequest")
	setStr(m, "id", r.ID)
	return m.Interface()
}

func (r *ItemRequest) fromProto(m protoreflect.Message) { r.ID = getStr(m, "id") }

func (r *RejectRequest) toProto() proto.Message {
	m := newMessage("RejectRequest")
	setStr(m, "id", r.ID)
	setStr(m, "reason", r.Reason)
	return m.Interface()
}

func (r *RejectRequest) fromProto(m protoreflect.Message) {
	r.ID, r.Reason = getStr(m, "id"), getStr(m, "reason")
}

func (r *ItemResponse) toProto() proto.Message {
	m := newMessage("ItemResponse")
	putItem(m.Mutable(field(m, "item")).Message(), r.Item)
	return m.Interface()
}

func (r *ItemResponse) fromProto(m protoreflect.Message) {
	r.Item = readItem(m.Get(field(m, "item")).Message())
}

func (r *BulkRequest) toProto() proto.Message {
	m := newMessage("BulkRequest")
	setStrs(m, "ids", r.IDs)
	setStr(m, "reason", r.Reason)
	return m.Interface()
}

func (r *BulkRequest) fromProto(m protoreflect.Message) {
	r.IDs, r.Reason = getStrs(m, "ids"), getStr(m, "reason")
}

func (r *BulkResponse) toProto() proto.Message {
	m := newMessage("BulkResult")
	m.Set(field(m, "requested"), protoreflect.ValueOfInt32(int32(r.Result.Requested)))
	m.Set(field(m, "succeeded"), protoreflect.ValueOfInt32(int32(r.Result.Succeeded)))
	if len(r.Result.Failed) > 0 {
		l := m.Mutable(field(m, "failed")).List()
		for _, f := range r.Result.Failed {
			el := l.NewElement()
			setStr(el.Message(), "id", idString(f.ID))
			setStr(el.Message(), "error", f.Message)
			l.Append(el)
		}
	}
	return m.Interface()
}

func (r *BulkResponse) fromProto(m protoreflect.Message) {
	r.Result = moderation.BulkResult{
		Requested: int(getInt(m, "requested")),
		Succeeded: int(getInt(m, "succeeded")),
	}
	l := m.Get(field(m, "failed")).List()
	for i := 0; i < l.Len(); i++ {
		f := l.Get(i).Message()
		r.Result.Failed = append(r.Result.Failed, moderation.BulkFailure{
			ID:      uuid.FromStringOrNil(getStr(f, "id")),
			Message: getStr(f, "error"),
		})
	}
}

func (*QueueRequest) toProto() proto.Message           { return &emptypb.Empty{} }
func (*QueueRequest) fromProto(protoreflect.Message) {}

func (r *QueueResponse) toProto() proto.Message {
	m := newMessage("QueueResponse")
	if len(r.Entries) > 0 {
		l := m.Mutable(field(m, "entries")).List()
		for _, e := range r.Entries {
			el := l.NewElement()
			em := el.Message()
			putItem(em.Mutable(field(em, "item")).Message(), e.Item)
			em.Set(field(em, "score"), protoreflect.ValueOfInt32(int32(e.Score)))
			l.Append(el)
		}
	}
	return m.Interface()
}

func (r *QueueResponse) fromProto(m protoreflect.Message) {
	l := m.Get(field(m, "entries")).List()
	r.Entries = make([]moderation.QueueEntry, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		em := l.Get(i).Message()
		r.Entries = append(r.Entries, moderation.QueueEntry{
			Item:  readItem(em.Get(field(em, "item")).Message()),
			Score: int(getInt(em, "score")),
		})
	}
}

func (r *VendorApprovalRequest) toProto() proto.Message {
	m := newMessage("VendorApprovalRequest")
	setStr(m, "vendor_user_id", r.VendorUserID)
	m.Set(field(m, "approved"), protoreflect.ValueOfBool(r.Approved))
	return m.Interface()
}

func (r *VendorApprovalRequest) fromProto(m protoreflect.Message) {
	r.VendorUserID = getStr(m, "vendor_user_id")
	r.Approved = m.Get(field(m, "approved")).Bool()
}

func (*Empty) toProto() proto.Message           { return &emptypb.Empty{} }
func (*Empty) fromProto(protoreflect.Message) {}
