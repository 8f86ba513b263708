// Package session holds the single source of truth for "who is signed in
// right now". The store is populated exclusively by the identity provider's
// state-change callback; consumers read snapshots and subscribe for changes.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/identity"
)

// Snapshot is a point-in-time view of the session. Loading is true only
// until the provider reports its first state; consumers must treat a loading
// snapshot as "session unknown", never as "signed out".
type Snapshot struct {
	Identity *identity.Identity
	Loading  bool
}

// SignedIn reports whether the snapshot holds an authenticated identity
func (s Snapshot) SignedIn() bool {
	return !s.Loading && s.Identity != nil
}

// Store owns the current session state. All writes flow through the
// provider subscription; the mutating operations below only delegate.
type Store struct {
	provider identity.Provider
	log      zerolog.Logger

	mu        sync.RWMutex
	current   *identity.Identity
	loading   bool
	listeners map[int]func(Snapshot)
	nextID    int

	unsubscribe func()
}

// New creates a session store bound to the given provider. The store starts
// in the loading state and subscribes to the provider immediately; the
// provider's initial callback (fired from its Start) resolves it.
func New(provider identity.Provider, log zerolog.Logger) *Store {
	s := &Store{
		provider:  provider,
		log:       log,
		loading:   true,
		listeners: make(map[int]func(Snapshot)),
	}
	s.unsubscribe = provider.Subscribe(s.onChange)
	return s
}

// Close detaches the store from the provider
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Current returns the session snapshot
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Identity: s.current, Loading: s.loading}
}

// Subscribe registers a listener invoked on every session change and
// returns an unsubscribe function
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// CreateAccount begins identity creation. On success the provider callback
// transitions the store to the new session.
func (s *Store) CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error) {
	return s.provider.CreateAccount(ctx, email, password)
}

// SignIn begins credential-based session establishment. Failures propagate
// to the caller and leave the store unchanged.
func (s *Store) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	return s.provider.SignIn(ctx, email, password)
}

// SignInWithProvider begins federated sign-in
func (s *Store) SignInWithProvider(ctx context.Context) (*identity.Identity, error) {
	return s.provider.SignInWithProvider(ctx)
}

// SignOut terminates the session
func (s *Store) SignOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// UpdateProfile mutates the identity's display attributes
func (s *Store) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	return s.provider.UpdateProfile(ctx, displayName, photoURL)
}

// onChange is the provider subscription callback, the only writer of the
// session state. The loading flag transitions to false exactly once, on the
// first reported state.
func (s *Store) onChange(id *identity.Identity) {
	s.mu.Lock()
	s.current = id
	s.loading = false
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	snap := Snapshot{Identity: s.current, Loading: false}
	s.mu.Unlock()

	if id != nil {
		s.log.Debug().Str("email", id.Email).Msg("Session changed: signed in")
	} else {
		s.log.Debug().Msg("Session changed: signed out")
	}

	for _, fn := range listeners {
		fn(snap)
	}
}
