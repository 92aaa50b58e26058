// Package crypto implements the envelope cipher used for every stored value.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the password via PBKDF2
//   - 12-byte random nonce per encryption operation
//   - 16-byte authentication tag appended to the ciphertext
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt, fresh for every envelope
//   - 100,000 iterations
//
// An Envelope carries ciphertext, nonce and salt and nothing else. Without the
// password it is meaningless. Decrypt reports a wrong password and a tampered
// envelope with the same ErrDecryptionFailed; structural damage is reported as
// ErrMalformedEnvelope.
//
// Memory safety:
//   - Use ClearBytes() to zero passwords and plaintexts after use
//   - Derived keys are zeroed before Encrypt and Decrypt return
package crypto
