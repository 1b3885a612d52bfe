// Package store provides persistent storage for theme preferences.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a preference is not found in the store.
var ErrNotFound = errors.New("preference not found")

// Preference is a single stored value for a visitor.
type Preference struct {
	Visitor   string    `db:"visitor"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Interface is implemented by Store and Cached.
type Interface interface {
	Get(ctx context.Context, visitor, key string) (string, error)
	Set(ctx context.Context, visitor, key, value string) error
	Delete(ctx context.Context, visitor, key string) error
	List(ctx context.Context, visitor string) ([]Preference, error)
	CreateAccount(ctx context.Context, acc Account) error
	Account(ctx context.Context, username string) (Account, error)
	Close() error
}

// DBType is a supported database engine.
type DBType int

// supported engines
const (
	DBTypeSQLite DBType = iota
	DBTypePostgres
)

// RWLocker is the subset of sync.RWMutex used by Store.
type RWLocker interface {
	RLock()
	RUnlock()
	Lock()
	Unlock()
}

// noopLocker is used for databases with their own concurrency control.
type noopLocker struct{}

func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}
func (noopLocker) Lock()    {}
func (noopLocker) Unlock()  {}
