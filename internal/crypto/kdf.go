package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes
	KeySize      = 32     // AES-256 key size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 100000 // PBKDF2-HMAC-SHA256 iterations
)

// KDF derives symmetric keys from passwords
type KDF struct {
	Iterations int
}

// DefaultKDF returns the KDF with the standard iteration count
func DefaultKDF() KDF {
	return KDF{Iterations: DefaultIters}
}

// DeriveKey derives a KeySize key from a password and salt.
// The same password and salt always yield the same key.
func (k KDF) DeriveKey(password, salt []byte) []byte {
	iters := k.Iterations
	if iters <= 0 {
		iters = DefaultIters
	}
	return pbkdf2.Key(password, salt, iters, KeySize, sha256.New)
}

// DeriveKey derives a key with the default KDF
func DeriveKey(password, salt []byte) []byte {
	return DefaultKDF().DeriveKey(password, salt)
}
