package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrAccountExists is returned when the username or email is already registered.
var ErrAccountExists = errors.New("account already exists")

// Account is a registered user. Visitor is the preference owner id the
// account carries across browsers, Password is a bcrypt hash.
type Account struct {
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Visitor   string    `db:"visitor"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateAccount stores a new account.
// Returns ErrAccountExists if the username, or a non-empty email, is taken.
func (s *Store) CreateAccount(ctx context.Context, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var taken int
	query := s.adoptQuery("SELECT COUNT(*) FROM accounts WHERE username = ? OR (email <> '' AND email = ?)")
	if err := s.db.GetContext(ctx, &taken, query, acc.Username, acc.Email); err != nil {
		return fmt.Errorf("failed to check account %q: %w", acc.Username, err)
	}
	if taken > 0 {
		return ErrAccountExists
	}

	query = s.adoptQuery("INSERT INTO accounts (username, email, password, visitor, created_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query, acc.Username, acc.Email, acc.Password, acc.Visitor, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create account %q: %w", acc.Username, err)
	}
	return nil
}

// Account returns the account with the given username.
// Returns ErrNotFound if there is none.
func (s *Store) Account(ctx context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var acc Account
	query := s.adoptQuery("SELECT username, email, password, visitor, created_at FROM accounts WHERE username = ?")
	err := s.db.GetContext(ctx, &acc, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to get account %q: %w", username, err)
	}
	return acc, nil
}
