package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/illarion/envseal/internal/crypto"
	"github.com/illarion/envseal/internal/lockout"
)

func openTestDB(t *testing.T) (*Storage, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.envseal")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db, dbPath
}

func testProject(name string) *Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &Project{
		ID:       "id-" + name,
		Name:     name,
		Created:  now,
		Modified: now,
		Verification: &crypto.EncodedEnvelope{
			Ciphertext: "Y2lwaGVydGV4dA==",
			Nonce:      "bm9uY2Vub25jZTEy",
			Salt:       "c2FsdHNhbHRzYWx0c2FsdA==",
		},
	}
}

func TestOpenAndInitialize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.envseal")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	// A second Initialize is a no-op
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}

	initialized, err = db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	if _, err := db.GetModified(); err != nil {
		t.Errorf("Modified time should be set: %v", err)
	}
}

func TestVaultID(t *testing.T) {
	db, _ := openTestDB(t)

	if _, err := db.GetVaultID(); err == nil {
		t.Fatal("Expected error before vault id is created")
	}

	id, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to create vault id: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("Vault id should be 32 hex chars, got %q", id)
	}

	again, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to get vault id: %v", err)
	}
	if again != id {
		t.Errorf("Vault id changed: %s -> %s", id, again)
	}
}

func TestProjectOperations(t *testing.T) {
	db, _ := openTestDB(t)

	p := testProject("web")
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	if err := db.CreateProject(testProject("web")); !errors.Is(err, ErrProjectExists) {
		t.Errorf("Expected ErrProjectExists, got %v", err)
	}

	byName, err := db.GetProjectByName("web")
	if err != nil {
		t.Fatalf("Failed to get project by name: %v", err)
	}
	if byName.ID != p.ID || byName.Legacy() {
		t.Errorf("Unexpected project: %+v", byName)
	}
	if *byName.Verification != *p.Verification {
		t.Errorf("Verification mismatch: got %+v", byName.Verification)
	}

	byID, err := db.GetProject(p.ID)
	if err != nil {
		t.Fatalf("Failed to get project: %v", err)
	}
	if byID.Name != "web" {
		t.Errorf("Name mismatch: got %s", byID.Name)
	}

	if _, err := db.GetProjectByName("missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}

	// Drop the verification record, as a legacy project would have
	byID.Verification = nil
	if err := db.PutProject(byID); err != nil {
		t.Fatalf("Failed to put project: %v", err)
	}
	legacy, err := db.GetProject(p.ID)
	if err != nil {
		t.Fatalf("Failed to get project: %v", err)
	}
	if !legacy.Legacy() {
		t.Error("Project should be legacy after dropping verification")
	}

	if err := db.PutProject(testProject("ghost")); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}

	if err := db.CreateProject(testProject("api")); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	list, err := db.ListProjects()
	if err != nil {
		t.Fatalf("Failed to list projects: %v", err)
	}
	if len(list) != 2 || list[0].Name != "api" || list[1].Name != "web" {
		t.Errorf("Unexpected project list: %+v", list)
	}
}

func TestSecretOperations(t *testing.T) {
	db, _ := openTestDB(t)

	p := testProject("web")
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	// No secrets yet
	secrets, err := db.ListSecrets(p.ID)
	if err != nil {
		t.Fatalf("Failed to list secrets: %v", err)
	}
	if len(secrets) != 0 {
		t.Errorf("Expected no secrets, got %d", len(secrets))
	}

	for _, name := range []string{"DB_URL", "API_KEY"} {
		secret := &Secret{Name: name, Envelope: crypto.EncodedEnvelope{Ciphertext: "ct-" + name}}
		if err := db.PutSecret(p.ID, secret); err != nil {
			t.Fatalf("Failed to put secret %s: %v", name, err)
		}
	}

	got, err := db.GetSecret(p.ID, "DB_URL")
	if err != nil {
		t.Fatalf("Failed to get secret: %v", err)
	}
	if got.Envelope.Ciphertext != "ct-DB_URL" {
		t.Errorf("Envelope mismatch: got %+v", got.Envelope)
	}

	secrets, err = db.ListSecrets(p.ID)
	if err != nil {
		t.Fatalf("Failed to list secrets: %v", err)
	}
	if len(secrets) != 2 || secrets[0].Name != "API_KEY" {
		t.Errorf("Unexpected secrets: %+v", secrets)
	}

	if err := db.DeleteSecret(p.ID, "DB_URL"); err != nil {
		t.Fatalf("Failed to delete secret: %v", err)
	}
	if _, err := db.GetSecret(p.ID, "DB_URL"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Expected ErrSecretNotFound, got %v", err)
	}
	if err := db.DeleteSecret(p.ID, "DB_URL"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Expected ErrSecretNotFound on second delete, got %v", err)
	}

	if err := db.PutSecret("no-such-project", &Secret{Name: "X"}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestRotateProject(t *testing.T) {
	db, _ := openTestDB(t)

	p := testProject("web")
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	for _, name := range []string{"A", "B"} {
		if err := db.PutSecret(p.ID, &Secret{Name: name, Envelope: crypto.EncodedEnvelope{Ciphertext: "old"}}); err != nil {
			t.Fatalf("Failed to put secret: %v", err)
		}
	}

	p.Verification = &crypto.EncodedEnvelope{Ciphertext: "new-check"}
	rotated := []Secret{{Name: "A", Envelope: crypto.EncodedEnvelope{Ciphertext: "new"}}}
	if err := db.RotateProject(p, rotated); err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}

	got, err := db.GetProject(p.ID)
	if err != nil {
		t.Fatalf("Failed to get project: %v", err)
	}
	if got.Verification.Ciphertext != "new-check" {
		t.Errorf("Verification not replaced: %+v", got.Verification)
	}

	secrets, err := db.ListSecrets(p.ID)
	if err != nil {
		t.Fatalf("Failed to list secrets: %v", err)
	}
	if len(secrets) != 1 || secrets[0].Envelope.Ciphertext != "new" {
		t.Errorf("Unexpected secrets after rotation: %+v", secrets)
	}
}

func TestDeleteProject(t *testing.T) {
	db, _ := openTestDB(t)

	p := testProject("web")
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if err := db.PutSecret(p.ID, &Secret{Name: "A"}); err != nil {
		t.Fatalf("Failed to put secret: %v", err)
	}
	if err := db.LockoutStore().Set(p.ID, []byte(`{"attempts":2}`)); err != nil {
		t.Fatalf("Failed to set lockout: %v", err)
	}

	if err := db.DeleteProject(p.ID); err != nil {
		t.Fatalf("Failed to delete project: %v", err)
	}

	if _, err := db.GetProjectByName("web"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
	if _, err := db.LockoutStore().Get(p.ID); !errors.Is(err, lockout.ErrNotFound) {
		t.Errorf("Lockout record should be gone, got %v", err)
	}

	// The name can be reused
	if err := db.CreateProject(testProject("web")); err != nil {
		t.Fatalf("Failed to recreate project: %v", err)
	}
	secrets, err := db.ListSecrets("id-web")
	if err != nil {
		t.Fatalf("Failed to list secrets: %v", err)
	}
	if len(secrets) != 0 {
		t.Errorf("Recreated project should start empty, got %d secrets", len(secrets))
	}
}

func TestLockoutStore(t *testing.T) {
	db, _ := openTestDB(t)
	store := db.LockoutStore()

	if _, err := store.Get("p"); !errors.Is(err, lockout.ErrNotFound) {
		t.Fatalf("Expected lockout.ErrNotFound, got %v", err)
	}

	if err := store.Set("p", []byte(`{"attempts":1}`)); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	data, err := store.Get("p")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if string(data) != `{"attempts":1}` {
		t.Errorf("Data mismatch: got %s", data)
	}

	// Works end to end with a guard
	guard := lockout.NewGuard(store, lockout.Config{}, nil)
	for i := 0; i < 2; i++ {
		guard.RecordFailure("q")
	}
	if remaining := guard.RemainingAttempts("q"); remaining != 1 {
		t.Errorf("Expected 1 remaining attempt, got %d", remaining)
	}
}

func TestPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.envseal")

	// Create and populate database
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	p := testProject("web")
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if err := db.PutSecret(p.ID, &Secret{Name: "A", Envelope: crypto.EncodedEnvelope{Ciphertext: "data"}}); err != nil {
		t.Fatalf("Failed to put secret: %v", err)
	}
	if err := db.LockoutStore().Set(p.ID, []byte(`{"attempts":2}`)); err != nil {
		t.Fatalf("Failed to set lockout: %v", err)
	}
	db.Close()

	// Reopen and verify
	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db2.Close()

	secret, err := db2.GetSecret(p.ID, "A")
	if err != nil {
		t.Fatalf("Failed to get secret: %v", err)
	}
	if secret.Envelope.Ciphertext != "data" {
		t.Error("Secret not persisted correctly")
	}

	data, err := db2.LockoutStore().Get(p.ID)
	if err != nil || string(data) != `{"attempts":2}` {
		t.Errorf("Lockout record not persisted: %s, %v", data, err)
	}
}

func TestCompact(t *testing.T) {
	db, _ := openTestDB(t)

	p := testProject("web")
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if err := db.PutSecret(p.ID, &Secret{Name: "A", Envelope: crypto.EncodedEnvelope{Ciphertext: "keep"}}); err != nil {
		t.Fatalf("Failed to put secret: %v", err)
	}
	store := db.LockoutStore()

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	secret, err := db.GetSecret(p.ID, "A")
	if err != nil || secret.Envelope.Ciphertext != "keep" {
		t.Errorf("Secret lost after compact: %+v, %v", secret, err)
	}
	// A store obtained before compaction keeps working
	if err := store.Set(p.ID, []byte(`{"attempts":1}`)); err != nil {
		t.Errorf("Lockout store broken after compact: %v", err)
	}
}

func TestUninitialized(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.envseal")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.GetProjectByName("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := db.LockoutStore().Set("x", nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}
