// Package keyring caches validated project passwords in the OS keyring.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "envseal"

// ErrNotFound is returned when no password is stored for a project
var ErrNotFound = keyring.ErrNotFound

// account scopes the entry to one project of one vault
func account(vaultID, projectID string) string {
	return vaultID + "/" + projectID
}

// SavePassword stores a project password in the OS keyring
func SavePassword(vaultID, projectID string, password []byte) error {
	return keyring.Set(serviceName, account(vaultID, projectID), string(password))
}

// GetPassword retrieves a project password from the OS keyring
func GetPassword(vaultID, projectID string) ([]byte, error) {
	password, err := keyring.Get(serviceName, account(vaultID, projectID))
	if err != nil {
		return nil, err
	}
	return []byte(password), nil
}

// DeletePassword removes a project password from the OS keyring.
// Deleting a missing entry is not an error.
func DeletePassword(vaultID, projectID string) error {
	err := keyring.Delete(serviceName, account(vaultID, projectID))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasPassword checks if a password is stored for the project
func HasPassword(vaultID, projectID string) bool {
	_, err := keyring.Get(serviceName, account(vaultID, projectID))
	return err == nil
}
