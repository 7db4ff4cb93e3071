// Package grpcserver exposes the admin moderation API over gRPC.
//
// The protobuf schema is assembled at init from descriptors (schema.go) and
// messages travel as dynamic messages through the default proto codec.
package grpcserver

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "storefront.v1.Moderation"

// MethodPrefix prefixes every full method name of the service.
const MethodPrefix = "/" + ServiceName + "/"

// Moderator is the moderation surface the server exposes.
type Moderator interface {
	Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (model.CatalogItem, error)
	Reject(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (model.CatalogItem, error)
	BulkApprove(ctx context.Context, actor model.Actor, ids []uuid.UUID) moderation.BulkResult
	BulkReject(ctx context.Context, actor model.Actor, ids []uuid.UUID, reason string) moderation.BulkResult
	Queue(ctx context.Context, actor model.Actor) ([]moderation.QueueEntry, error)
	SetVendorApproval(ctx context.Context, actor model.Actor, vendorUserID uuid.UUID, approved bool) error
}

var _ Moderator = (*moderation.Machine)(nil)

// Server wires the moderation machine into gRPC handlers.
type Server struct {
	mod Moderator
}

// New constructs the moderation server.
func New(mod Moderator) *Server {
	return &Server{mod: mod}
}

// Register adds the service to s.
func Register(s grpc.ServiceRegistrar, srv *Server) {
	s.RegisterService(&ServiceDesc, srv)
}

func actor(ctx context.Context) (model.Actor, error) {
	a, ok := ActorFromCtx(ctx)
	if !ok {
		return model.Actor{}, status.Error(codes.Unauthenticated, "no auth")
	}
	return a, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.FromString(s)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "bad id %q", s)
		}
		out = append(out, id)
	}
	return out, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, errs.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "no auth")
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

// Approve moves a pending item to approved.
func (s *Server) Approve(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	a, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromString(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad id")
	}
	item, err := s.mod.Approve(ctx, a, id)
	if err != nil {
		return nil, toStatus("approve", err)
	}
	return &ItemResponse{Item: item}, nil
}

// Reject moves a pending item to rejected with a reason.
func (s *Server) Reject(ctx context.Context, req *RejectRequest) (*ItemResponse, error) {
	a, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromString(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad id")
	}
	item, err := s.mod.Reject(ctx, a, id, req.Reason)
	if err != nil {
		return nil, toStatus("reject", err)
	}
	return &ItemResponse{Item: item}, nil
}

// BulkApprove approves each id; per-item failures are reported, not returned.
func (s *Server) BulkApprove(ctx context.Context, req *BulkRequest) (*BulkResponse, error) {
	a, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := parseIDs(req.IDs)
	if err != nil {
		return nil, err
	}
	return &BulkResponse{Result: s.mod.BulkApprove(ctx, a, ids)}, nil
}

// BulkReject rejects each id with one reason.
func (s *Server) BulkReject(ctx context.Context, req *BulkRequest) (*BulkResponse, error) {
	a, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := parseIDs(req.IDs)
	if err != nil {
		return nil, err
	}
	return &BulkResponse{Result: s.mod.BulkReject(ctx, a, ids, req.Reason)}, nil
}

// Queue lists pending items in triage order.
func (s *Server) Queue(ctx context.Context, _ *QueueRequest) (*QueueResponse, error) {
	a, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.mod.Queue(ctx, a)
	if err != nil {
		return nil, toStatus("queue", err)
	}
	return &QueueResponse{Entries: entries}, nil
}

// SetVendorApproval toggles the vendor-wide flag.
func (s *Server) SetVendorApproval(ctx context.Context, req *VendorApprovalRequest) (*Empty, error) {
	a, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.FromString(req.VendorUserID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad vendor id")
	}
	if err := s.mod.SetVendorApproval(ctx, a, id, req.Approved); err != nil {
		return nil, toStatus("set vendor approval", err)
	}
	return &Empty{}, nil
}
