// Package lockout rate-limits password attempts per project.
//
// A Guard counts consecutive verification failures for a project. When the
// count reaches the threshold the project is locked until a fixed time.
// Expiry is lazy: the next query after that time resets the record.
//
// Records live in an injected Store. When the store fails the guard logs a
// warning and behaves as if the project were unlocked. A broken store must
// never keep the owner out of their own data. The guard is a soft rate
// limit; the real protection is AEAD plus the slow key derivation.
package lockout
