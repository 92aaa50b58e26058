package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes = errors.New("path escapes working directory")
	ErrEmptyPath   = errors.New("empty path not allowed")
)

// SecretFilePerm is the mode of files that receive plaintext secrets
const SecretFilePerm = 0600

// FileRoot confines secret file reads and writes to one directory
// using the os.Root API.
type FileRoot struct {
	root *os.Root
	dir  string
}

// New opens a FileRoot at dir
func New(dir string) (*FileRoot, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root: %w", err)
	}

	return &FileRoot{root: root, dir: absPath}, nil
}

// Close releases resources held by the FileRoot
func (fr *FileRoot) Close() error {
	if fr.root != nil {
		return fr.root.Close()
	}
	return nil
}

// Dir returns the absolute directory of the root
func (fr *FileRoot) Dir() string {
	return fr.dir
}

// Resolve turns a user-supplied path into a clean path relative to the
// root. Absolute paths are accepted when they point inside the root.
func (fr *FileRoot) Resolve(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if filepath.IsAbs(userPath) {
		rel, err := filepath.Rel(fr.dir, filepath.Clean(userPath))
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
		}
		userPath = rel
	}

	// filepath.IsLocal rejects escaping paths and reserved names
	if !filepath.IsLocal(userPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	cleanPath := filepath.Clean(userPath)
	if strings.HasPrefix(cleanPath, "..") {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}
	return cleanPath, nil
}

// ReadFile reads a file inside the root
func (fr *FileRoot) ReadFile(path string) ([]byte, error) {
	rel, err := fr.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return fr.root.ReadFile(rel)
}

// WriteFile writes a secret file inside the root with owner-only permissions
func (fr *FileRoot) WriteFile(path string, data []byte) error {
	rel, err := fr.Resolve(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if dir := filepath.Dir(rel); dir != "." {
		if err := fr.root.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	if err := fr.root.WriteFile(rel, data, SecretFilePerm); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file
	return fr.root.Chmod(rel, SecretFilePerm)
}
