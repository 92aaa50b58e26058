package core

import (
	"fmt"
	"regexp"
)

var (
	projectNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
	secretNameRe  = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._/-]{0,127}$`)
)

// ValidateProjectName checks a project name
func ValidateProjectName(name string) error {
	if !projectNameRe.MatchString(name) {
		return fmt.Errorf("%w: project %q", ErrInvalidName, name)
	}
	return nil
}

// ValidateSecretName checks a secret name
func ValidateSecretName(name string) error {
	if !secretNameRe.MatchString(name) {
		return fmt.Errorf("%w: secret %q", ErrInvalidName, name)
	}
	return nil
}
