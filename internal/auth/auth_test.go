package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/database"
	"dashboard-sync-service/internal/rbac"
	"dashboard-sync-service/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.NewDatabase(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "auth.db")})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := store.NewSQLStore(db)
	t.Cleanup(func() { st.Close() })
	return NewService(st, bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "s3cret", rbac.Cybersecurity)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID == 0 || user.PasswordHash == "s3cret" {
		t.Fatalf("user = %+v", user)
	}

	if _, err := svc.Register(ctx, "alice", "other", rbac.Admin); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate register err = %v", err)
	}

	got, err := svc.Authenticate(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != string(rbac.Cybersecurity) {
		t.Errorf("role = %q", got.Role)
	}

	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob", "s3cret"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("unknown user err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, " alice", "s3cret"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("padded username err = %v, want ErrUnknownUser", err)
	}
	if _, err := svc.Authenticate(ctx, "Alice", "s3cret"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("lookup must be case-sensitive, err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "  ", "pw", rbac.Admin); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank username err = %v", err)
	}
	if _, err := svc.Register(ctx, "carol", "pw", rbac.Role("Finance")); !errors.Is(err, rbac.ErrUnknownRole) {
		t.Errorf("bad role err = %v", err)
	}
}

func TestSessionManager(t *testing.T) {
	m := NewSessionManager(time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	sess, err := m.Create(&store.User{ID: 4, Username: "dana", Role: "IT Operations"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Role != rbac.ITOperations || sess.Token == "" {
		t.Fatalf("session = %+v", sess)
	}

	if _, ok := m.Get(sess.Token); !ok {
		t.Fatal("fresh session not found")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := m.Get(sess.Token); ok {
		t.Error("expired session still valid")
	}

	sess, _ = m.Create(&store.User{ID: 4, Username: "dana", Role: "Admin"})
	m.Delete(sess.Token)
	if _, ok := m.Get(sess.Token); ok {
		t.Error("deleted session still valid")
	}

	if _, err := m.Create(&store.User{Username: "eve", Role: "Finance"}); err == nil {
		t.Error("expected error for unknown role")
	}
}
