package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// GenerateSigningKey generates a new ECDSA P-256 private key and returns
// it in PEM (PKCS8) form. Used to bootstrap the long-lived CSRF signing
// key and by tests.
func GenerateSigningKey() ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate ECDSA key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParseSigningKey loads an ECDSA P-256 private key from PEM bytes.
// Both PKCS8 ("PRIVATE KEY") and SEC1 ("EC PRIVATE KEY") blocks are
// accepted.
func ParseSigningKey(pemData []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("cryptox: invalid PEM for ECDSA key")
	}

	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse PKCS8: %w", err)
		}
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("cryptox: not an ECDSA private key")
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse EC key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("cryptox: unexpected PEM block %q", block.Type)
	}
}

// SignMessage hashes msg with SHA-256 and returns an ASN.1 DER encoded
// ECDSA signature.
func SignMessage(key *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: sign: %w", err)
	}
	return sig, nil
}

// VerifyMessage reports whether der is a valid signature over msg.
func VerifyMessage(pub *ecdsa.PublicKey, msg, der []byte) bool {
	digest := sha256.Sum256(msg)
	return ecdsa.VerifyASN1(pub, digest[:], der)
}
