package csrfx

import (
	"crypto/ecdsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/quollhq/authedge/pkg/cryptox"
)

// ErrBadSignature reports a signature that does not verify against the
// token, including signatures that fail to decode at all.
var ErrBadSignature = errors.New("csrfx: bad signature")

// Signer binds minted tokens to the server identity with a long-lived
// ECDSA P-256 key. The key is loaded lazily from the configured PEM path
// and cached for the life of the process.
type Signer struct {
	keyPath string

	once    sync.Once
	loadErr error
	key     *ecdsa.PrivateKey
}

// NewSigner builds a Signer that lazily loads its key from keyPath.
func NewSigner(keyPath string) *Signer {
	return &Signer{keyPath: keyPath}
}

// NewSignerFromPEM builds a Signer from an in-memory PEM block.
func NewSignerFromPEM(pemData []byte) (*Signer, error) {
	key, err := cryptox.ParseSigningKey(pemData)
	if err != nil {
		return nil, err
	}
	s := &Signer{key: key}
	s.once.Do(func() {}) // key already present, disarm lazy loading
	return s, nil
}

// Sign returns a base64 ASN.1 DER signature over the token bytes.
func (s *Signer) Sign(token string) (string, error) {
	if err := s.loadKey(); err != nil {
		return "", err
	}

	der, err := cryptox.SignMessage(s.key, []byte(token))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// Verify checks a base64 signature against the token. Decode failures
// are indistinguishable from mismatches: both return ErrBadSignature.
func (s *Signer) Verify(token, signature string) error {
	if err := s.loadKey(); err != nil {
		return err
	}

	der, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrBadSignature
	}
	if !cryptox.VerifyMessage(&s.key.PublicKey, []byte(token), der) {
		return ErrBadSignature
	}
	return nil
}

func (s *Signer) loadKey() error {
	s.once.Do(func() {
		pemData, err := os.ReadFile(s.keyPath)
		if err != nil {
			s.loadErr = fmt.Errorf("csrfx: read signing key: %w", err)
			return
		}
		s.key, s.loadErr = cryptox.ParseSigningKey(pemData)
	})
	return s.loadErr
}
