package credentials

import (
	"errors"
	"testing"
)

func TestRegisterAndVerify(t *testing.T) {
	store := NewStore()

	record, err := store.Register("alice", "dragon42")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if record.Username != "alice" || record.PasswordHash == "" || record.Salt == "" {
		t.Errorf("record = %+v", record)
	}
	if record.PasswordHash == "dragon42" {
		t.Error("plaintext must not be stored")
	}

	if !store.Verify("alice", "dragon42") {
		t.Error("correct password should verify")
	}
	if store.Verify("alice", "dragon43") {
		t.Error("wrong password should not verify")
	}
	if store.Verify("bob", "dragon42") {
		t.Error("unknown username should not verify")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := NewStore()

	if _, err := store.Register("alice", "dragon42"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Register("alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrUsernameTaken", err)
	}

	// Usernames are case-sensitive
	if _, err := store.Register("Alice", "dragon42"); err != nil {
		t.Errorf("differently-cased username should register, got %v", err)
	}
}

func TestSaltsDifferPerRecord(t *testing.T) {
	store := NewStore()

	a, _ := store.Register("alice", "same-password")
	b, _ := store.Register("bob", "same-password")
	if a.Salt == b.Salt {
		t.Error("records should get distinct salts")
	}
	if a.PasswordHash == b.PasswordHash {
		t.Error("same password should hash differently per record")
	}
}

func TestPutAndRemove(t *testing.T) {
	store := NewStore()

	record, _ := store.Register("alice", "dragon42")
	store.Remove("alice")
	if store.Verify("alice", "dragon42") {
		t.Error("removed record should not verify")
	}

	store.Put(record)
	if !store.Verify("alice", "dragon42") {
		t.Error("rehydrated record should verify")
	}
}

func TestSuggestions(t *testing.T) {
	username, err := SuggestUsername()
	if err != nil {
		t.Fatalf("SuggestUsername() error = %v", err)
	}
	if username == "" {
		t.Error("suggested username is empty")
	}

	password, err := SuggestPassword()
	if err != nil {
		t.Fatalf("SuggestPassword() error = %v", err)
	}
	if len(password) != 4 {
		t.Errorf("suggested password length = %d, want 4", len(password))
	}
}
