// Package limiter throttles clients that keep presenting invalid bearer tokens.
package limiter

import (
	"context"
	"net"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Limiter tracks authentication failures per client key and blocks a client
// for a while once it fails too often.
type Limiter interface {
	// Allow reports whether the client may try again and, if not, for how long it is blocked.
	Allow(ctx context.Context, key []byte) (bool, time.Duration, error)
	// Failure records a failed attempt and reports whether the client is now blocked.
	Failure(ctx context.Context, key []byte) (bool, time.Duration, error)
}

// Policy sets the sliding window and lockout.
type Policy struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

// DefaultPolicy allows five failures per fifteen minutes.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// Key hashes the host part of a peer address so raw addresses are never stored.
func Key(addr string) []byte {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	sum := blake2b.Sum256([]byte(host))
	return sum[:]
}
