package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/identity"
	"github.com/and161185/storefront/internal/localcache"
	"github.com/and161185/storefront/internal/model"
)

const (
	metaDeviceID = "device_id"
	metaToken    = "token"
)

// deviceOwner returns the persisted device identity, creating it on first use.
func deviceOwner(ctx context.Context, s localcache.Store) (model.Owner, error) {
	raw, err := s.Get(ctx, localcache.MetaScope, metaDeviceID)
	if err == nil {
		if id, perr := uuid.FromString(strings.TrimSpace(string(raw))); perr == nil {
			return model.Device(id), nil
		}
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.Owner{}, fmt.Errorf("read device id: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Owner{}, err
	}
	if err := s.Put(ctx, localcache.MetaScope, metaDeviceID, []byte(id.String())); err != nil {
		return model.Owner{}, fmt.Errorf("store device id: %w", err)
	}
	return model.Device(id), nil
}

// session is the signed-in actor restored from the cache, if any.
type session struct {
	token string
	actor model.Actor
}

func (s *session) signedIn() bool { return s != nil && s.token != "" }

// loadSession reads the stored token. An expired or malformed token is
// dropped and the device continues anonymously.
func loadSession(ctx context.Context, s localcache.Store) (*session, error) {
	raw, err := s.Get(ctx, localcache.MetaScope, metaToken)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	tok := strings.TrimSpace(string(raw))
	actor, err := identity.ParseUnverified(tok)
	if err != nil {
		_ = s.Delete(ctx, localcache.MetaScope, metaToken)
		return nil, nil
	}
	return &session{token: tok, actor: actor}, nil
}

func saveSession(ctx context.Context, s localcache.Store, token string) (*session, error) {
	actor, err := identity.ParseUnverified(token)
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, localcache.MetaScope, metaToken, []byte(token)); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &session{token: token, actor: actor}, nil
}

func clearSession(ctx context.Context, s localcache.Store) error {
	return s.Delete(ctx, localcache.MetaScope, metaToken)
}
