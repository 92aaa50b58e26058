// Package verifier proves that a candidate password is the one a project
// was created with, without storing the password.
//
// At project creation the fixed Marker is sealed into a verification
// envelope. Checking a candidate means opening that envelope and comparing
// the result with Marker.
//
// Projects created before verification records existed have no envelope.
// LegacyPolicy decides what happens to them. LegacyAccept takes any
// non-empty password and is a weaker trust mode, kept on purpose for old
// data.
package verifier
