package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// ErrUnsealable is returned for values that were not sealed by the same key.
var ErrUnsealable = errors.New("secret: value cannot be opened")

// Box seals short values held in shared session storage.
type Box struct {
	key [keySize]byte
}

// NewBox derives a key from passphrase. An empty passphrase yields a random
// key, so sealed values only open inside the current process.
func NewBox(passphrase string) (*Box, error) {
	b := &Box{}
	var source io.Reader = rand.Reader
	if passphrase != "" {
		source = hkdf.New(sha256.New, []byte(passphrase), nil, []byte("account-console pending login"))
	}
	if _, err := io.ReadFull(source, b.key[:]); err != nil {
		return nil, fmt.Errorf("derive secret key: %w", err)
	}
	return b, nil
}

// Seal encrypts plaintext with a fresh nonce prepended.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// Open reverses Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrUnsealable
	}
	return out, nil
}
