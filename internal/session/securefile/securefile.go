// Package securefile stores the persisted session blob encrypted at rest.
// The blob is sealed with AES-256-GCM under a key derived from a caller
// provided device secret via scrypt, so a copied file is useless without
// the secret.
package securefile

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 16

	// scrypt cost parameters. Interactive-grade: the file is read once at
	// startup and written on every session mutation.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrCipher is returned when the file exists but cannot be decrypted,
// typically because the device secret changed or the file was tampered with.
var ErrCipher = errors.New("securefile: cannot decrypt session file")

// Store persists one encrypted record in a single file.
type Store struct {
	path   string
	secret []byte
}

// Config holds configuration for the encrypted file store.
type Config struct {
	// Path of the encrypted file, e.g. <config-dir>/gatelink/auth-storage.enc.
	Path string

	// Secret is the device secret the encryption key is derived from.
	Secret []byte
}

// New creates an encrypted file store.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("securefile: path is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("securefile: secret is required")
	}
	return &Store{path: cfg.Path, secret: cfg.Secret}, nil
}

// Load reads and decrypts the stored blob. A missing file returns (nil, nil).
// An undecryptable file returns ErrCipher wrapped with detail; callers treat
// it the same as a corrupt blob.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("securefile: read %s: %w", s.path, err)
	}

	if len(raw) < saltLength {
		return nil, fmt.Errorf("%w: truncated file", ErrCipher)
	}
	salt, sealed := raw[:saltLength], raw[saltLength:]

	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: truncated file", ErrCipher)
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return plain, nil
}

// Save encrypts the blob and writes it with owner-only permissions. The
// write goes through a temp file and rename so a crash mid-write leaves the
// previous record intact.
func (s *Store) Save(ctx context.Context, blob []byte) error {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("securefile: generate salt: %w", err)
	}

	gcm, err := s.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("securefile: generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(blob)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, blob, nil)

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("securefile: create %s: %w", dir, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("securefile: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("securefile: rename %s: %w", tmp, err)
	}
	return nil
}

// Delete removes the stored file. Deleting a missing file is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("securefile: remove %s: %w", s.path, err)
	}
	return nil
}

// aead derives the AES-GCM cipher for the given salt.
func (s *Store) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.secret, salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("securefile: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("securefile: init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("securefile: init gcm: %w", err)
	}
	return gcm, nil
}
