package services

import (
	"testing"
	"time"

	"github.com/brkosebay/QR-Code-Manager/internal/models"
)

type stubAuthStore struct {
	users map[string]*models.AdminUser
}

func newStubAuthStore() *stubAuthStore {
	return &stubAuthStore{users: map[string]*models.AdminUser{}}
}

func (s *stubAuthStore) FindAdminByEmail(email string) (*models.AdminUser, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (s *stubAuthStore) AddAdmin(u *models.AdminUser) error {
	copy := *u
	s.users[u.Email] = &copy
	return nil
}

func testSigner(uid, email string, ttl time.Duration) (string, error) {
	return "signed:" + uid, nil
}

func TestEnsureAdminIdempotent(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, testSigner)
	if err := svc.EnsureAdmin("ops@example.com", "hunter22"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	first := store.users["ops@example.com"]
	if first == nil {
		t.Fatalf("admin not created")
	}
	if err := svc.EnsureAdmin("ops@example.com", "different"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if store.users["ops@example.com"].ID != first.ID {
		t.Fatalf("existing admin must not be replaced")
	}
}

func TestLogin(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, testSigner)
	if err := svc.EnsureAdmin("ops@example.com", "hunter22"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	res, err := svc.Login("ops@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.UserID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, err := svc.Login("ops@example.com", "wrong"); err == nil {
		t.Fatalf("wrong password must fail")
	}
	if _, err := svc.Login("ghost@example.com", "hunter22"); err == nil {
		t.Fatalf("unknown user must fail")
	}
	if _, err := svc.Login("", ""); err == nil {
		t.Fatalf("blank credentials must fail")
	}
}
