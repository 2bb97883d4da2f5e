package service

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	// ErrSealerKeyMissing is returned when no credential key is configured.
	ErrSealerKeyMissing = errors.New("credential key not configured")
	// ErrCredentialCorrupt is returned when a sealed credential fails authentication.
	ErrCredentialCorrupt = errors.New("sealed credential corrupt")
)

// CredentialSealer encrypts portal passwords of queued runs at rest.
type CredentialSealer struct {
	key [32]byte
}

// NewCredentialSealer derives the box key from secret.
func NewCredentialSealer(secret string) (*CredentialSealer, error) {
	if secret == "" {
		return nil, ErrSealerKeyMissing
	}
	return &CredentialSealer{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal returns nonce||box.
func (s *CredentialSealer) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key), nil
}

// Open reverses Seal.
func (s *CredentialSealer) Open(sealed []byte) (string, error) {
	if len(sealed) <= nonceSize {
		return "", ErrCredentialCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCredentialCorrupt
	}
	return string(plain), nil
}
