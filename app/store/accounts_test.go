package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Accounts(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		err := store.CreateAccount(ctx, Account{Username: "alice", Email: "alice@example.com", Password: "hash", Visitor: "va"})
		require.NoError(t, err)

		acc, err := store.Account(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", acc.Email)
		assert.Equal(t, "hash", acc.Password)
		assert.Equal(t, "va", acc.Visitor)
		assert.False(t, acc.CreatedAt.IsZero())
	})

	t.Run("username taken", func(t *testing.T) {
		err := store.CreateAccount(ctx, Account{Username: "alice", Password: "other", Visitor: "vb"})
		require.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("email taken", func(t *testing.T) {
		err := store.CreateAccount(ctx, Account{Username: "bob", Email: "alice@example.com", Password: "h", Visitor: "vb"})
		require.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("empty emails do not collide", func(t *testing.T) {
		require.NoError(t, store.CreateAccount(ctx, Account{Username: "carol", Password: "h", Visitor: "vc"}))
		require.NoError(t, store.CreateAccount(ctx, Account{Username: "dave", Password: "h", Visitor: "vd"}))
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := store.Account(ctx, "nobody")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCached_Accounts(t *testing.T) {
	cached, err := NewCached(newTestStore(t), 10)
	require.NoError(t, err)
	defer cached.Close()
	ctx := context.Background()

	require.NoError(t, cached.CreateAccount(ctx, Account{Username: "alice", Password: "hash", Visitor: "va"}))
	require.ErrorIs(t, cached.CreateAccount(ctx, Account{Username: "alice", Password: "hash", Visitor: "vb"}), ErrAccountExists)

	acc, err := cached.Account(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "va", acc.Visitor)

	_, err = cached.Account(ctx, "bob")
	require.ErrorIs(t, err, ErrNotFound)
}
