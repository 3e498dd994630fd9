// Package auth issues sessions for registered accounts.
package auth

import (
	"context"

	"github.com/fjsui0423-max/pachi-money/internal/models"
)

// Authenticator verifies account credentials. The service layer talks to
// this interface so the credential scheme can change without touching it.
type Authenticator interface {
	// Register creates an account. displayName may be empty, in which
	// case one is derived from the email address.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account matching the credentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error
}
