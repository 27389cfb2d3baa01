package jwtx

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a token that failed verification solely because
	// its expiry has passed. Callers use it to answer "forbidden, please
	// re-authenticate" instead of rejecting outright.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalid covers every other verification failure: bad signature,
	// malformed token, issuer or audience mismatch.
	ErrInvalid = errors.New("jwtx: invalid token")
)

// Service signs and verifies session tokens with one ES256 keypair.
// Key material is read from the configured paths on first use and cached
// for the life of the process; unreadable or unparseable key material is
// a configuration error, not a per-request condition.
type Service struct {
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration

	privateKeyPath string
	publicKeyPath  string

	once    sync.Once
	loadErr error
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
}

// NewService builds a Service that lazily loads PEM key material from
// the given file paths.
func NewService(issuer, audience string, accessTTL, refreshTTL time.Duration, privateKeyPath, publicKeyPath string) *Service {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &Service{
		issuer:         issuer,
		audience:       audience,
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
		privateKeyPath: privateKeyPath,
		publicKeyPath:  publicKeyPath,
	}
}

// NewServiceFromPEM builds a Service from in-memory PEM blocks. Used by
// tests and callers that manage key files themselves.
func NewServiceFromPEM(issuer, audience string, accessTTL, refreshTTL time.Duration, privatePEM, publicPEM []byte) (*Service, error) {
	s := NewService(issuer, audience, accessTTL, refreshTTL, "", "")
	var err error
	s.private, s.public, err = parseKeyPair(privatePEM, publicPEM)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {}) // keys already present, disarm lazy loading
	return s, nil
}

// AccessTTL reports the configured access-token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue signs a token for userID with the TTL belonging to authType.
func (s *Service) Issue(userID string, authType AuthType) (string, error) {
	ttl := s.accessTTL
	if authType == AuthTypeRefresh {
		ttl = s.refreshTTL
	}
	return s.IssueWithTTL(userID, authType, ttl)
}

// IssueWithTTL signs a token with an explicit lifetime.
func (s *Service) IssueWithTTL(userID string, authType AuthType, ttl time.Duration) (string, error) {
	if err := s.loadKeys(); err != nil {
		return "", err
	}

	claims := newClaims(userID, authType, s.issuer, s.audience, ttl, time.Now().UTC())
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signed, err := token.SignedString(s.private)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and standard claims of tokenStr. It
// returns ErrExpired when and only when expiry is the failure, and
// ErrInvalid for everything else; a token with a bad signature is
// always ErrInvalid even if it is also past expiry.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	if err := s.loadKeys(); err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	parser := jwt.NewParser(opts...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.public, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// loadKeys reads and parses the keypair once; every later call returns
// the first outcome.
func (s *Service) loadKeys() error {
	s.once.Do(func() {
		privatePEM, err := os.ReadFile(s.privateKeyPath)
		if err != nil {
			s.loadErr = fmt.Errorf("jwtx: read private key: %w", err)
			return
		}
		publicPEM, err := os.ReadFile(s.publicKeyPath)
		if err != nil {
			s.loadErr = fmt.Errorf("jwtx: read public key: %w", err)
			return
		}
		s.private, s.public, s.loadErr = parseKeyPair(privatePEM, publicPEM)
	})
	return s.loadErr
}

func parseKeyPair(privatePEM, publicPEM []byte) (*ecdsa.PrivateKey, *ecdsa.PublicKey, error) {
	private, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, nil, err
	}

	public := &private.PublicKey
	if len(publicPEM) > 0 {
		public, err = parsePublicKey(publicPEM)
		if err != nil {
			return nil, nil, err
		}
	}
	return private, public, nil
}

func parsePrivateKey(pemKey []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for private key")
	}

	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
		}
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not an ECDSA private key")
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: parse EC key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q", block.Type)
	}
}

func parsePublicKey(pemKey []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for public key")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKIX: %w", err)
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("jwtx: not an ECDSA public key")
	}
	return pub, nil
}
