// Package sealed wraps filippo.io/age for return-file encryption at rest.
// The server holds a single X25519 identity (from RETURN_ENCRYPTION_KEY);
// files are encrypted to its recipient on upload and decrypted on the fly at
// view time. Plaintext is never written back to storage.
package sealed

import (
	"fmt"
	"io"

	"filippo.io/age"
)

// Sealer encrypts and decrypts streams with the server's age identity.
type Sealer struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// New parses an age X25519 identity string (AGE-SECRET-KEY-1...) and returns
// a Sealer for it.
func New(identityStr string) (*Sealer, error) {
	identity, err := age.ParseX25519Identity(identityStr)
	if err != nil {
		return nil, fmt.Errorf("parse age identity: %w", err)
	}
	return &Sealer{identity: identity, recipient: identity.Recipient()}, nil
}

// Encrypt returns a WriteCloser that encrypts everything written to it into
// dst. The caller must Close it to flush the final ciphertext chunk.
func (s *Sealer) Encrypt(dst io.Writer) (io.WriteCloser, error) {
	w, err := age.Encrypt(dst, s.recipient)
	if err != nil {
		return nil, fmt.Errorf("create age encryptor: %w", err)
	}
	return w, nil
}

// Decrypt wraps an encrypted stream and returns the plaintext reader.
// Fails immediately if the ciphertext was not encrypted to this identity.
func (s *Sealer) Decrypt(src io.Reader) (io.Reader, error) {
	r, err := age.Decrypt(src, s.identity)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	return r, nil
}
