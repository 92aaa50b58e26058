package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is one encrypted value. Envelopes are never modified in place;
// editing a value produces a new Envelope with a new salt and nonce.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	Salt       []byte
}

// EncodedEnvelope is the storage and transport form of an Envelope,
// each field Base64 encoded on its own.
type EncodedEnvelope struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
	Salt       string `json:"salt"`
}

// Validate checks field lengths without touching the password
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil envelope", ErrMalformedEnvelope)
	}
	if len(e.Salt) != SaltSize {
		return fmt.Errorf("%w: salt is %d bytes, want %d", ErrMalformedEnvelope, len(e.Salt), SaltSize)
	}
	if len(e.Nonce) != NonceSize {
		return fmt.Errorf("%w: nonce is %d bytes, want %d", ErrMalformedEnvelope, len(e.Nonce), NonceSize)
	}
	if len(e.Ciphertext) < TagSize {
		return fmt.Errorf("%w: ciphertext shorter than tag", ErrMalformedEnvelope)
	}
	return nil
}

// Encode converts the envelope to its Base64 form
func (e *Envelope) Encode() EncodedEnvelope {
	return EncodedEnvelope{
		Ciphertext: base64.StdEncoding.EncodeToString(e.Ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(e.Nonce),
		Salt:       base64.StdEncoding.EncodeToString(e.Salt),
	}
}

// Decode parses the Base64 form and validates the result
func (e EncodedEnvelope) Decode() (*Envelope, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrMalformedEnvelope, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrMalformedEnvelope, err)
	}
	salt, err := base64.StdEncoding.DecodeString(e.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedEnvelope, err)
	}

	env := &Envelope{Ciphertext: ciphertext, Nonce: nonce, Salt: salt}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}
