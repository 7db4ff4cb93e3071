package grpcserver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/moderation"
)

// DialOptions configures a client connection.
type DialOptions struct {
	CAPath string
	// SkipVerify accepts any server certificate (dev).
	SkipVerify bool
	// Plaintext disables TLS entirely; only for loopback and tests.
	Plaintext bool
	Token     string
}

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev flag
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Client calls the moderation service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Dial connects to addr and returns the client with its connection.
func Dial(addr string, o DialOptions, extra ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	var opts []grpc.DialOption
	if o.Plaintext {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		creds, err := loadTLS(o.CAPath, o.SkipVerify)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}
	if o.Token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: o.Token, secure: !o.Plaintext}))
	}
	opts = append(opts, extra...)
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(cc), cc, nil
}

type wireMessage interface {
	toProto() proto.Message
	fromProto(protoreflect.Message)
}

// invoke sends in and decodes the reply into out.
func (c *Client) invoke(ctx context.Context, name string, in, out wireMessage) error {
	reply := dynamicpb.NewMessage(method(name).Output())
	if err := c.cc.Invoke(ctx, MethodPrefix+name, in.toProto(), reply); err != nil {
		return err
	}
	out.fromProto(reply)
	return nil
}

func (c *Client) Approve(ctx context.Context, id uuid.UUID) (model.CatalogItem, error) {
	var out ItemResponse
	err := c.invoke(ctx, "Approve", &ItemRequest{ID: id.String()}, &out)
	return out.Item, err
}

func (c *Client) Reject(ctx context.Context, id uuid.UUID, reason string) (model.CatalogItem, error) {
	var out ItemResponse
	err := c.invoke(ctx, "Reject", &RejectRequest{ID: id.String(), Reason: reason}, &out)
	return out.Item, err
}

func (c *Client) BulkApprove(ctx context.Context, ids []uuid.UUID) (moderation.BulkResult, error) {
	var out BulkResponse
	err := c.invoke(ctx, "BulkApprove", &BulkRequest{IDs: idStrings(ids)}, &out)
	return out.Result, err
}

func (c *Client) BulkReject(ctx context.Context, ids []uuid.UUID, reason string) (moderation.BulkResult, error) {
	var out BulkResponse
	err := c.invoke(ctx, "BulkReject", &BulkRequest{IDs: idStrings(ids), Reason: reason}, &out)
	return out.Result, err
}

func (c *Client) Queue(ctx context.Context) ([]moderation.QueueEntry, error) {
	var out QueueResponse
	err := c.invoke(ctx, "Queue", &QueueRequest{}, &out)
	return out.Entries, err
}

func (c *Client) SetVendorApproval(ctx context.Context, vendorUserID uuid.UUID, approved bool) error {
	return c.invoke(ctx, "SetVendorApproval",
		&VendorApprovalRequest{VendorUserID: vendorUserID.String(), Approved: approved}, &Empty{})
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
