package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "pricewatch-cli"

// ErrNotFound is returned when no credential is stored for the realm
var ErrNotFound = errors.New("no stored credential")

// Store defines the interface for bearer-token storage operations.
// This allows us to mock the keyring in tests.
type Store interface {
	Save(token string) error
	Load() (string, error)
	Delete() error
}

// Keyring stores the bearer token in the OS keychain/credential manager,
// keyed by the identity realm (one credential per identity service).
type Keyring struct {
	realm string
}

// NewKeyring creates a keyring-backed store for the given identity realm
func NewKeyring(realm string) *Keyring {
	return &Keyring{realm: realm}
}

func (k *Keyring) key() string {
	return fmt.Sprintf("token-%s", k.realm)
}

// Save persists the bearer token
func (k *Keyring) Save(token string) error {
	if err := keyring.Set(service, k.key(), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load retrieves the bearer token
func (k *Keyring) Load() (string, error) {
	token, err := keyring.Get(service, k.key())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Delete removes the bearer token
func (k *Keyring) Delete() error {
	if err := keyring.Delete(service, k.key()); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
