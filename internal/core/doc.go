// Package core provides the envseal vault operations.
//
// A Vault owns the bbolt database of one vault file. Core operations include:
//   - CreateProject: register a project with a verification record
//   - Unlock: check lockout, verify the password and open a Session
//   - Session: set, get, list and remove secrets of one project
//   - ChangePassword: re-encrypt a project under a new password atomically
//   - Status/Projects: report secrets and lockout state without a password
//
// Every secret is sealed in its own envelope, so a Session keeps the
// password rather than a derived key. Session.Close zeros it.
package core
