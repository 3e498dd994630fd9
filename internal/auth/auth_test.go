package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/internal/storage"
)

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return fmt.Errorf("user: %w", storage.ErrDuplicate)
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return u, nil
}

func newAuthenticator() *PasswordAuthenticator {
	a := NewPasswordAuthenticator(&memUsers{byEmail: map[string]*models.User{}})
	a.cost = bcrypt.MinCost
	return a
}

func TestRegisterAndAuthenticate(t *testing.T) {
	a := newAuthenticator()
	ctx := context.Background()

	user, err := a.Register(ctx, " Alice@Example.com ", "", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" || user.DisplayName != "alice" {
		t.Errorf("unexpected user: %+v", user)
	}
	if strings.Contains(user.PasswordHash, "password123") {
		t.Error("password stored in clear")
	}

	if _, err := a.Register(ctx, "alice@example.com", "Again", "password123"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}

	got, err := a.Authenticate(ctx, "ALICE@example.com", "password123")
	if err != nil || got.ID != user.ID {
		t.Errorf("Authenticate = %v, %v", got, err)
	}
	if _, err := a.Authenticate(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newAuthenticator()
	ctx := context.Background()

	if _, err := a.Register(ctx, "bob@example.com", "Bob", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	for _, email := range []string{"", "not-an-email", "Bob <bob@example.com>"} {
		if _, err := a.Register(ctx, email, "Bob", "password123"); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("%q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("a-very-secret-key-for-tests", time.Hour)
	user := &models.User{ID: "u1", Email: "alice@example.com", DisplayName: "Alice"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "alice@example.com" || claims.DisplayName != "Alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	other := NewJWTManager("a-different-secret-key", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token: expected ErrInvalidToken, got %v", err)
	}

	expired := NewJWTManager("a-very-secret-key-for-tests", -time.Minute)
	old, _ := expired.Generate(user)
	if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: expected ErrInvalidToken, got %v", err)
	}
}
