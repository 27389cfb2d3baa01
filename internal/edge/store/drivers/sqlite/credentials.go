package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/quollhq/authedge/internal/edge/domain"
	"github.com/quollhq/authedge/internal/edge/store"
)

type credentialsRepo struct {
	db   *sql.DB
	seal SealFunc
}

const credentialColumns = `user_id, username, email, encrypted_password, is_active, created_at, updated_at`

func (r *credentialsRepo) GetByUserID(ctx context.Context, userID string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = ?`, userID)
	return scanCredential(row)
}

func (r *credentialsRepo) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE email = ? COLLATE NOCASE`, email)
	return scanCredential(row)
}

func (r *credentialsRepo) GetByUsername(ctx context.Context, username string) (domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE username = ? COLLATE NOCASE`, username)
	return scanCredential(row)
}

func (r *credentialsRepo) Create(ctx context.Context, c domain.Credential, password string) (domain.Credential, error) {
	sealed, err := r.seal(password)
	if err != nil {
		return domain.Credential{}, err
	}

	now := time.Now().UTC()
	c.EncryptedPassword = sealed
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO credentials (`+credentialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Username, c.Email, c.EncryptedPassword, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return domain.Credential{}, mapConstraint(err)
	}
	return c, nil
}

func (r *credentialsRepo) Activate(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET is_active = 1, updated_at = ? WHERE user_id = ?`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (domain.Credential, error) {
	var c domain.Credential
	err := row.Scan(
		&c.UserID,
		&c.Username,
		&c.Email,
		&c.EncryptedPassword,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}
	return c, nil
}
