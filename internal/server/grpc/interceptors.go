package grpcserver

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/and161185/storefront/internal/limiter"
	"github.com/and161185/storefront/internal/model"
)

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		// metadata only, never payloads
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		)
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// TokenVerifier turns a bearer token into an actor.
type TokenVerifier interface {
	Verify(token string) (model.Actor, error)
}

// AuthUnary verifies the bearer token of every call under prefix and stores
// the actor in context. Other methods (health) pass through. When lim is set,
// clients that keep failing verification are refused with ResourceExhausted.
func AuthUnary(v TokenVerifier, prefix string, lim limiter.Limiter, log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return next(ctx, req)
		}
		key := clientKey(ctx)
		if lim != nil {
			ok, wait, err := lim.Allow(ctx, key)
			if err != nil {
				log.Warn("limiter unavailable", zap.Error(err))
			} else if !ok {
				return nil, status.Errorf(codes.ResourceExhausted, "too many failed attempts, retry in %s", wait.Round(time.Second))
			}
		}

		actor, err := verify(ctx, v)
		if err != nil {
			if lim != nil {
				if blocked, _, lerr := lim.Failure(ctx, key); lerr != nil {
					log.Warn("limiter unavailable", zap.Error(lerr))
				} else if blocked {
					log.Warn("client blocked after failed auth", zap.String("method", info.FullMethod))
				}
			}
			return nil, err
		}
		return next(WithActor(ctx, actor), req)
	}
}

func verify(ctx context.Context, v TokenVerifier) (model.Actor, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return model.Actor{}, status.Error(codes.Unauthenticated, "no auth")
	}
	actor, err := v.Verify(tok)
	if err != nil {
		return model.Actor{}, status.Error(codes.Unauthenticated, "invalid token")
	}
	return actor, nil
}

func clientKey(ctx context.Context) []byte {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return limiter.Key(p.Addr.String())
	}
	return limiter.Key("unknown")
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
