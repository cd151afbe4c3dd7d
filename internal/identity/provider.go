package identity

import (
	"context"
	"errors"

	"github.com/brightform/userhub/internal/domain"
)

// Provider abstracts the external identity system that owns authentication
// credentials. Implementations call a hosted IdP over HTTP or keep accounts
// in memory for local development.
type Provider interface {
	// Signup registers an email/password identity and returns the
	// provider-issued id together with its confirmation outcome.
	Signup(ctx context.Context, params SignupParams) (Signup, error)
	// Delete removes an identity. Used as the compensating action when the
	// record write fails after signup.
	Delete(ctx context.Context, id string) error
}

var (
	// ErrConflict is returned when the email is already registered at the provider.
	ErrConflict = errors.New("identity: email already registered")
	// ErrUnavailable covers transport and provider-side failures, including timeouts.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// SignupParams carries the credentials and profile metadata sent to the provider.
type SignupParams struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// Signup is the outcome of a successful provider signup.
type Signup struct {
	ID           string
	Confirmation Confirmation
}

// Confirmation is the two-variant result of a signup: either the identity is
// immediately active with a session, or it waits for email confirmation.
type Confirmation interface {
	confirmation()
}

// ActiveSession means the identity is usable right away.
type ActiveSession struct {
	AccessToken string
	ExpiresIn   int64
}

// PendingConfirmation means the identity exists but has no session until the
// user confirms their email.
type PendingConfirmation struct{}

func (ActiveSession) confirmation() {}

func (PendingConfirmation) confirmation() {}

// Caller identifies an authenticated request principal resolved from a
// provider-issued session token.
type Caller struct {
	ID    string
	Email string
	Role  domain.Role
}
