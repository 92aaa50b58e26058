package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/illarion/envseal/internal/lockout"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")   // Version, timestamps, vault id - unencrypted
	ProjectsBucket = []byte("projects") // Project records with verification envelope
	NamesBucket    = []byte("names")    // Project name -> id index
	SecretsBucket  = []byte("secrets")  // Nested bucket per project of secret envelopes
	LockoutBucket  = []byte("lockout")  // Lockout records per project
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
)

var (
	ErrNotInitialized  = errors.New("vault not initialized")
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrSecretNotFound  = errors.New("secret not found")
)

const openTimeout = time.Second

// Storage provides BBolt-based storage for envseal
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a vault database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure for a new vault
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		// Create all buckets
		for _, bucket := range [][]byte{ConfigBucket, ProjectsBucket, NamesBucket, SecretsBucket, LockoutBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	var vaultID string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("vault_id not found")
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// GetOrCreateVaultID retrieves existing vault ID or generates a new one
func (s *Storage) GetOrCreateVaultID() (string, error) {
	vaultID, err := s.GetVaultID()
	if err == nil {
		return vaultID, nil
	}

	vaultID, err = NewID()
	if err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		return config.Put(ConfigVaultID, []byte(vaultID))
	})
	if err != nil {
		return "", err
	}

	return vaultID, nil
}

// NewID returns a random 128-bit hex identifier
func NewID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CreateProject stores a new project and indexes its name
func (s *Storage) CreateProject(p *Project) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		projects, names, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		if names.Get([]byte(p.Name)) != nil || projects.Get([]byte(p.ID)) != nil {
			return ErrProjectExists
		}
		if err := putJSON(projects, p.ID, p); err != nil {
			return err
		}
		if err := names.Put([]byte(p.Name), []byte(p.ID)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// PutProject overwrites an existing project record
func (s *Storage) PutProject(p *Project) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		projects, _, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		if projects.Get([]byte(p.ID)) == nil {
			return ErrProjectNotFound
		}
		if err := putJSON(projects, p.ID, p); err != nil {
			return err
		}
		return touch(tx)
	})
}

// GetProject retrieves a project by id
func (s *Storage) GetProject(id string) (*Project, error) {
	var p *Project
	err := s.db.View(func(tx *bolt.Tx) error {
		projects, _, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		p, err = readProject(projects, id)
		return err
	})
	return p, err
}

// GetProjectByName retrieves a project by its unique name
func (s *Storage) GetProjectByName(name string) (*Project, error) {
	var p *Project
	err := s.db.View(func(tx *bolt.Tx) error {
		projects, names, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		id := names.Get([]byte(name))
		if id == nil {
			return ErrProjectNotFound
		}
		p, err = readProject(projects, string(id))
		return err
	})
	return p, err
}

// ListProjects returns all projects sorted by name
func (s *Storage) ListProjects() ([]Project, error) {
	var list []Project
	err := s.db.View(func(tx *bolt.Tx) error {
		projects, _, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		return projects.ForEach(func(k, v []byte) error {
			var p Project
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("corrupt project %s: %w", k, err)
			}
			list = append(list, p)
			return nil
		})
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, err
}

// DeleteProject removes a project with its secrets, name entry and lockout record
func (s *Storage) DeleteProject(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		projects, names, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		p, err := readProject(projects, id)
		if err != nil {
			return err
		}
		if err := projects.Delete([]byte(id)); err != nil {
			return err
		}
		if err := names.Delete([]byte(p.Name)); err != nil {
			return err
		}
		if parent := tx.Bucket(SecretsBucket); parent.Bucket([]byte(id)) != nil {
			if err := parent.DeleteBucket([]byte(id)); err != nil {
				return err
			}
		}
		if err := tx.Bucket(LockoutBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// PutSecret creates or replaces a secret of a project
func (s *Storage) PutSecret(projectID string, secret *Secret) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := secretBucket(tx, projectID, true)
		if err != nil {
			return err
		}
		if err := putJSON(bucket, secret.Name, secret); err != nil {
			return err
		}
		return touch(tx)
	})
}

// GetSecret retrieves a secret of a project
func (s *Storage) GetSecret(projectID, name string) (*Secret, error) {
	var secret *Secret
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket, err := secretBucket(tx, projectID, false)
		if err != nil {
			return err
		}
		if bucket == nil {
			return ErrSecretNotFound
		}
		data := bucket.Get([]byte(name))
		if data == nil {
			return ErrSecretNotFound
		}
		secret = &Secret{}
		return json.Unmarshal(data, secret)
	})
	return secret, err
}

// DeleteSecret removes a secret of a project
func (s *Storage) DeleteSecret(projectID, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := secretBucket(tx, projectID, false)
		if err != nil {
			return err
		}
		if bucket == nil || bucket.Get([]byte(name)) == nil {
			return ErrSecretNotFound
		}
		if err := bucket.Delete([]byte(name)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// ListSecrets returns all secrets of a project in name order
func (s *Storage) ListSecrets(projectID string) ([]Secret, error) {
	var list []Secret
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket, err := secretBucket(tx, projectID, false)
		if err != nil || bucket == nil {
			return err
		}
		return bucket.ForEach(func(k, v []byte) error {
			var secret Secret
			if err := json.Unmarshal(v, &secret); err != nil {
				return fmt.Errorf("corrupt secret %s: %w", k, err)
			}
			list = append(list, secret)
			return nil
		})
	})
	return list, err
}

// RotateProject replaces the project record and all of its secrets in
// one transaction. Secrets missing from the slice are removed.
func (s *Storage) RotateProject(p *Project, secrets []Secret) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		projects, _, err := projectBuckets(tx)
		if err != nil {
			return err
		}
		if projects.Get([]byte(p.ID)) == nil {
			return ErrProjectNotFound
		}
		if err := putJSON(projects, p.ID, p); err != nil {
			return err
		}

		parent := tx.Bucket(SecretsBucket)
		if parent.Bucket([]byte(p.ID)) != nil {
			if err := parent.DeleteBucket([]byte(p.ID)); err != nil {
				return err
			}
		}
		bucket, err := parent.CreateBucket([]byte(p.ID))
		if err != nil {
			return err
		}
		for i := range secrets {
			if err := putJSON(bucket, secrets[i].Name, &secrets[i]); err != nil {
				return err
			}
		}
		return touch(tx)
	})
}

// LockoutStore exposes the lockout bucket as a lockout.Store
func (s *Storage) LockoutStore() lockout.Store {
	return &lockoutStore{s: s}
}

// lockoutStore goes through the Storage so it survives Compact reopening the db
type lockoutStore struct {
	s *Storage
}

func (l *lockoutStore) Get(key string) ([]byte, error) {
	var data []byte
	err := l.s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(LockoutBucket)
		if bucket == nil {
			return ErrNotInitialized
		}
		data = bucket.Get([]byte(key))
		if data == nil {
			return lockout.ErrNotFound
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), data...)
		return nil
	})
	return data, err
}

func (l *lockoutStore) Set(key string, value []byte) error {
	return l.s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(LockoutBucket)
		if bucket == nil {
			return ErrNotInitialized
		}
		return bucket.Put([]byte(key), value)
	})
}

func projectBuckets(tx *bolt.Tx) (projects, names *bolt.Bucket, err error) {
	projects = tx.Bucket(ProjectsBucket)
	names = tx.Bucket(NamesBucket)
	if projects == nil || names == nil {
		return nil, nil, ErrNotInitialized
	}
	return projects, names, nil
}

func secretBucket(tx *bolt.Tx, projectID string, create bool) (*bolt.Bucket, error) {
	parent := tx.Bucket(SecretsBucket)
	if parent == nil {
		return nil, ErrNotInitialized
	}
	if tx.Bucket(ProjectsBucket).Get([]byte(projectID)) == nil {
		return nil, ErrProjectNotFound
	}
	if create {
		return parent.CreateBucketIfNotExists([]byte(projectID))
	}
	return parent.Bucket([]byte(projectID)), nil
}

func readProject(projects *bolt.Bucket, id string) (*Project, error) {
	data := projects.Get([]byte(id))
	if data == nil {
		return nil, ErrProjectNotFound
	}
	p := &Project{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("corrupt project %s: %w", id, err)
	}
	return p, nil
}

func putJSON(bucket *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(key), data)
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after deleting secrets or rotating a password.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
