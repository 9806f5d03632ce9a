package vault

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the collection password verifier.
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

// PasswordVerifier is a salted one-way hash of a collection password.
// The password itself is never stored. Each collection gets its own
// random salt.
type PasswordVerifier struct {
	Salt []byte `json:"salt"`
	Hash []byte `json:"hash"`
}

// NewPasswordVerifier hashes password with a fresh random salt.
func NewPasswordVerifier(password string) (*PasswordVerifier, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return &PasswordVerifier{
		Salt: salt,
		Hash: argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen),
	}, nil
}

// Verify reports whether password matches the verifier, in constant time.
func (v *PasswordVerifier) Verify(password string) bool {
	got := argon2.IDKey([]byte(password), v.Salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, v.Hash) == 1
}

// SetPassword protects the collection with password, replacing any
// previous verifier.
func (c *Collection) SetPassword(password string) error {
	v, err := NewPasswordVerifier(password)
	if err != nil {
		return err
	}
	c.Password = v
	c.IsEncrypted = true
	return nil
}

// RemovePassword drops the password protection.
func (c *Collection) RemovePassword() {
	c.Password = nil
	c.IsEncrypted = false
}

// VerifyPassword checks password against the collection's verifier.
// A collection with no verifier is implicitly unlocked and accepts
// anything.
func (c *Collection) VerifyPassword(password string) bool {
	if c.Password == nil {
		return true
	}
	return c.Password.Verify(password)
}
