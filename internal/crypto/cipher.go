package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// Cipher seals values into envelopes. It holds no key material and is
// safe for concurrent use.
type Cipher struct {
	kdf    KDF
	random io.Reader
}

// NewCipher creates a cipher using the given KDF
func NewCipher(kdf KDF) *Cipher {
	return &Cipher{
		kdf:    kdf,
		random: rand.Reader,
	}
}

var defaultCipher = NewCipher(DefaultKDF())

// Encrypt seals plaintext with the default cipher
func Encrypt(plaintext, password []byte) (*Envelope, error) {
	return defaultCipher.Encrypt(plaintext, password)
}

// Decrypt opens an envelope with the default cipher
func Decrypt(env *Envelope, password []byte) ([]byte, error) {
	return defaultCipher.Decrypt(env, password)
}

// Encrypt derives a key from password and a fresh salt, then seals
// plaintext with AES-256-GCM under a fresh nonce.
func (c *Cipher) Encrypt(plaintext, password []byte) (*Envelope, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key := c.kdf.DeriveKey(password, salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
		Salt:       salt,
	}, nil
}

// Decrypt opens an envelope. A wrong password and a modified envelope
// both return ErrDecryptionFailed.
func (c *Cipher) Decrypt(env *Envelope, password []byte) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	key := c.kdf.DeriveKey(password, env.Salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithTagSize(block, TagSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
