package store

import (
	"context"
	"errors"

	"github.com/quollhq/authedge/internal/edge/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Credentials() Credentials

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Credentials interface {
	// GetByUserID returns a credential by its derived user id.
	GetByUserID(ctx context.Context, userID string) (domain.Credential, error)

	// GetByEmail resolves case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.Credential, error)

	// GetByUsername resolves case-insensitively.
	GetByUsername(ctx context.Context, username string) (domain.Credential, error)

	// Create inserts a new credential. The plaintext password is sealed
	// by the driver's write-time hook; it never reaches the database as
	// given. Duplicate user id, email or username is ErrAlreadyExists.
	Create(ctx context.Context, c domain.Credential, password string) (domain.Credential, error)

	// Activate flips is_active and bumps updated_at.
	Activate(ctx context.Context, userID string) error
}
