package storage

import (
	"time"

	"github.com/illarion/envseal/internal/crypto"
)

// Project is the stored form of a project
type Project struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Verification is nil for legacy projects created without one
	Verification *crypto.EncodedEnvelope `json:"verification,omitempty"`
}

// Legacy reports whether the project has no verification record
func (p *Project) Legacy() bool {
	return p.Verification == nil
}

// Secret is one named, encrypted value of a project
type Secret struct {
	Name     string                 `json:"name"`
	Envelope crypto.EncodedEnvelope `json:"envelope"`
	Created  time.Time              `json:"created"`
	Modified time.Time              `json:"modified"`
}
