package domain

import "time"

// Credential is the stored account record. EncryptedPassword holds the
// cipher envelope produced by the store's write-time seal hook, never
// the plaintext, and is excluded from every serialized projection.
type Credential struct {
	UserID            string    `json:"userId"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	EncryptedPassword string    `json:"-"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Identity is the redacted projection returned to callers alongside
// issued tokens.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

// Identity projects the credential without its password material.
func (c Credential) Identity() Identity {
	return Identity{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		IsActive: c.IsActive,
	}
}
