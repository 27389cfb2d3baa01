// Package cryptox holds the symmetric credential cipher, the P-256
// signing helpers used by the CSRF guard, and password schemes.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// Supported envelope cipher algorithms.
const (
	AlgorithmGCM = "aes-256-gcm"
	AlgorithmCBC = "aes-256-cbc"
)

var (
	ErrMalformedEnvelope = errors.New("cryptox: malformed cipher envelope")
	ErrDecrypt           = errors.New("cryptox: decrypt failed")
)

// Cipher encrypts short strings into a delimited hex envelope and back.
//
// Authenticated mode (aes-256-gcm) produces
// hex(iv) + delim + hex(ciphertext) + delim + hex(tag); non-authenticated
// mode (aes-256-cbc) omits the tag segment. Hex encoding guarantees the
// delimiter never appears inside a segment.
type Cipher struct {
	algorithm string
	key       []byte
	ivLength  int
	delimiter string
}

// NewCipher validates the configuration and returns a Cipher. The key
// must be 32 bytes (AES-256).
func NewCipher(algorithm string, key []byte, ivLength int, delimiter string) (*Cipher, error) {
	algorithm = strings.ToLower(algorithm)
	switch algorithm {
	case AlgorithmGCM, AlgorithmCBC:
	default:
		return nil, fmt.Errorf("cryptox: unsupported algorithm %q", algorithm)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("cryptox: key must be 32 bytes, got %d", len(key))
	}
	if delimiter == "" {
		return nil, errors.New("cryptox: empty delimiter")
	}
	// Hex segments never contain anything outside [0-9a-f].
	if strings.ContainsAny(delimiter, "0123456789abcdefABCDEF") {
		return nil, fmt.Errorf("cryptox: delimiter %q collides with hex encoding", delimiter)
	}
	if algorithm == AlgorithmCBC {
		// CBC initialization vectors are always one block.
		ivLength = aes.BlockSize
	}
	if ivLength <= 0 {
		ivLength = 12
	}

	return &Cipher{
		algorithm: algorithm,
		key:       key,
		ivLength:  ivLength,
		delimiter: delimiter,
	}, nil
}

// Algorithm reports the configured mode.
func (c *Cipher) Algorithm() string { return c.algorithm }

// Encrypt seals plaintext into the delimited hex envelope.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cryptox: create cipher: %w", err)
	}

	iv := make([]byte, c.ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("cryptox: generate iv: %w", err)
	}

	switch c.algorithm {
	case AlgorithmGCM:
		gcm, err := cipher.NewGCMWithNonceSize(block, c.ivLength)
		if err != nil {
			return "", fmt.Errorf("cryptox: create gcm: %w", err)
		}
		sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
		tagAt := len(sealed) - gcm.Overhead()
		ct, tag := sealed[:tagAt], sealed[tagAt:]
		return hexJoin(c.delimiter, iv, ct, tag), nil

	default: // AlgorithmCBC
		padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
		ct := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
		return hexJoin(c.delimiter, iv, ct), nil
	}
}

// Decrypt opens an envelope produced by Encrypt. Authenticated mode
// fails closed when the tag does not verify; no partial plaintext is
// ever returned.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cryptox: create cipher: %w", err)
	}

	switch c.algorithm {
	case AlgorithmGCM:
		iv, ct, tag, err := hexSplit(envelope, c.delimiter, 3)
		if err != nil {
			return "", err
		}
		gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return "", fmt.Errorf("cryptox: create gcm: %w", err)
		}
		plaintext, err := gcm.Open(nil, iv, append(ct, tag...), nil)
		if err != nil {
			return "", ErrDecrypt
		}
		return string(plaintext), nil

	default: // AlgorithmCBC
		iv, ct, _, err := hexSplit(envelope, c.delimiter, 2)
		if err != nil {
			return "", err
		}
		if len(iv) != aes.BlockSize || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
			return "", ErrMalformedEnvelope
		}
		plaintext := make([]byte, len(ct))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ct)
		unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
		if err != nil {
			return "", ErrDecrypt
		}
		return string(unpadded), nil
	}
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrMalformedEnvelope
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrMalformedEnvelope
	}
	for _, pad := range b[len(b)-n:] {
		if int(pad) != n {
			return nil, ErrMalformedEnvelope
		}
	}
	return b[:len(b)-n], nil
}
