package store

import (
	"context"
	"errors"

	"github.com/umputun/themer/app/theme"
)

// ValueStore is the part of Interface needed by Scoped.
type ValueStore interface {
	Get(ctx context.Context, visitor, key string) (string, error)
	Set(ctx context.Context, visitor, key, value string) error
}

// Scoped binds a store to one visitor and a context, satisfying theme.Storage.
type Scoped struct {
	ctx     context.Context
	store   ValueStore
	visitor string
}

// NewScoped makes a theme.Storage for the given visitor.
func NewScoped(ctx context.Context, st ValueStore, visitor string) *Scoped {
	return &Scoped{ctx: ctx, store: st, visitor: visitor}
}

// Get returns the stored value, mapping a missing row to theme.ErrNotFound.
func (s *Scoped) Get(key string) (string, error) {
	val, err := s.store.Get(s.ctx, s.visitor, key)
	if errors.Is(err, ErrNotFound) {
		return "", theme.ErrNotFound
	}
	return val, err //nolint:wrapcheck // store errors are already wrapped
}

// Set stores the value for the visitor.
func (s *Scoped) Set(key, value string) error {
	return s.store.Set(s.ctx, s.visitor, key, value) //nolint:wrapcheck // store errors are already wrapped
}
