// Package storage provides the BBolt database behind an envseal vault.
//
// Database structure uses five buckets:
//   - config: format version, timestamps and vault id (unencrypted)
//   - projects: project id -> project record, including the verification envelope
//   - names: project name -> project id
//   - secrets: one nested bucket per project id, secret name -> secret record
//   - lockout: project id -> lockout record (attempts, lockedUntil)
//
// Secret values are only ever stored as Base64 envelopes. Project and secret
// names are not encrypted so that ls and status work without a password.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
