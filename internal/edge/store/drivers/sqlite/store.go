package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/quollhq/authedge/internal/edge/store"
	_ "modernc.org/sqlite"
)

// SealFunc turns a plaintext password into its stored form. It is the
// write-time hook the credentials repo runs before any insert, keeping
// plaintext out of the persistence path entirely.
type SealFunc func(plaintext string) (string, error)

type Store struct {
	db   *sql.DB
	seal SealFunc
	dsn  string
}

func NewStore(dsn string, seal SealFunc) (*Store, error) {
	if seal == nil {
		return nil, errors.New("sqlite: seal hook is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:   db,
		seal: seal,
		dsn:  dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Credentials() store.Credentials {
	return &credentialsRepo{db: s.db, seal: s.seal}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}
