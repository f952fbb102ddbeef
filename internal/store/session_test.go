package store

import (
	"testing"

	"github.com/rumzy/unisettle/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewUserStore(db)
}

func TestSessionCreateAndGet(t *testing.T) {
	ss, us := setupSessionTestDB(t)

	user, err := us.Create("amina@example.com", "Amina", "hash", "tok")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	session, err := ss.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Token == "" {
		t.Fatal("session token is empty")
	}

	got, err := ss.GetByToken(session.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Fatal("session not found")
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, user.ID)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	ss, us := setupSessionTestDB(t)

	user, err := us.Create("amina@example.com", "Amina", "hash", "tok")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	a, err := ss.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	b, err := ss.Create(user.ID)
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}
	if a.Token == b.Token {
		t.Error("two sessions share a token")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, us := setupSessionTestDB(t)

	user, err := us.Create("amina@example.com", "Amina", "hash", "tok")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	session, err := ss.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ss.Delete(session.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ss.GetByToken(session.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("session still resolvable after delete")
	}
}

func TestGetByUnknownToken(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	got, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown token, got %+v", got)
	}
}
