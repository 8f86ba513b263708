// Package identity abstracts the external identity provider: account
// creation, credential and federated sign-in, profile updates, and the
// state-change subscription every session consumer hangs off of.
package identity

import (
	"context"
	"errors"
)

// Identity is the authenticated principal reported by the provider
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Listener receives provider state changes. A nil identity means signed out.
type Listener func(*Identity)

var (
	ErrNotSignedIn = errors.New("not signed in")
)

// Provider is the identity provider contract. Every successful mutating
// operation causes exactly one subsequent listener invocation; failed
// operations leave the provider state untouched.
type Provider interface {
	// CreateAccount registers a new account and signs it in
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)

	// SignIn establishes a session from email/password credentials
	SignIn(ctx context.Context, email, password string) (*Identity, error)

	// SignInWithProvider establishes a session via the federated flow
	SignInWithProvider(ctx context.Context) (*Identity, error)

	// SignOut terminates the session
	SignOut(ctx context.Context) error

	// UpdateProfile mutates the identity's display attributes. It does not
	// change the authorization role.
	UpdateProfile(ctx context.Context, displayName, photoURL string) error

	// Subscribe registers a listener and returns an unsubscribe function.
	// The listener is invoked on every state change, including once when the
	// provider resolves its initial state.
	Subscribe(l Listener) (unsubscribe func())

	// Token returns the current bearer credential, empty when signed out
	Token() string
}
