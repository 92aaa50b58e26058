package verifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/envseal/internal/crypto"
)

// Marker is the plaintext of every verification envelope. It is never
// used as secret data.
const Marker = "envseal-password-check:v1"

var ErrUnknownPolicy = errors.New("unknown legacy policy")

// Verifier creates and checks verification envelopes
type Verifier struct {
	cipher *crypto.Cipher
}

// New creates a verifier on top of the given cipher
func New(c *crypto.Cipher) *Verifier {
	return &Verifier{cipher: c}
}

// Create seals Marker under password
func (v *Verifier) Create(password []byte) (*crypto.Envelope, error) {
	env, err := v.cipher.Encrypt([]byte(Marker), password)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification record: %w", err)
	}
	return env, nil
}

// Verify reports whether candidate opens record to exactly Marker.
// A wrong password or a tampered record gives false with a nil error;
// only a structurally broken record returns an error.
func (v *Verifier) Verify(record *crypto.Envelope, candidate []byte) (bool, error) {
	plaintext, err := v.cipher.Decrypt(record, candidate)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return false, nil
		}
		return false, err
	}
	defer crypto.ClearBytes(plaintext)

	return crypto.ConstantTimeCompare(plaintext, []byte(Marker)), nil
}

// LegacyPolicy controls unlocking of projects without a verification record
type LegacyPolicy int

const (
	// LegacyAccept accepts any non-empty password
	LegacyAccept LegacyPolicy = iota
	// LegacyReject refuses to unlock until the project gets a record
	LegacyReject
)

// ParseLegacyPolicy parses "accept" or "reject"
func ParseLegacyPolicy(s string) (LegacyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept", "":
		return LegacyAccept, nil
	case "reject":
		return LegacyReject, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

func (p LegacyPolicy) String() string {
	switch p {
	case LegacyAccept:
		return "accept"
	case LegacyReject:
		return "reject"
	default:
		return fmt.Sprintf("LegacyPolicy(%d)", int(p))
	}
}

// UnmarshalText lets the policy be read straight from configuration
func (p *LegacyPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseLegacyPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// AcceptLegacy applies the policy to a candidate for an unguarded project
func (p LegacyPolicy) AcceptLegacy(candidate []byte) bool {
	return p == LegacyAccept && len(candidate) > 0
}
