package role

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/identity"
	"github.com/pricewatch-dev/pricewatch/internal/session"
)

const fetchTimeout = 15 * time.Second

// Fetcher issues the authenticated role lookup against the marketplace API
type Fetcher interface {
	UserRole(ctx context.Context, email string) (string, error)
}

// Snapshot is a point-in-time view of a role lookup. Loading is true while
// the fetch for the identity's email is still in flight.
type Snapshot struct {
	Role    Role
	Loading bool
}

// Resolver caches roles per email so repeated evaluations issue at most one
// request per distinct identity. Fetch failures resolve to Unknown: the
// caller must treat that as "not authorized", never as "authorized".
type Resolver struct {
	fetch Fetcher
	// sessions backs the stale-result guard: a fetch that completes after
	// the session moved to a different identity is dropped
	sessions *session.Store
	log      zerolog.Logger

	mu        sync.Mutex
	cache     map[string]Role
	inflight  map[string]bool
	listeners map[int]func()
	nextID    int
}

// New creates a resolver fetching roles through the given fetcher
func New(fetch Fetcher, sessions *session.Store, log zerolog.Logger) *Resolver {
	return &Resolver{
		fetch:     fetch,
		sessions:  sessions,
		log:       log,
		cache:     make(map[string]Role),
		inflight:  make(map[string]bool),
		listeners: make(map[int]func()),
	}
}

// Resolve returns the role snapshot for the given identity and starts a
// fetch when the role is not yet cached. A nil identity resolves immediately
// to (Unknown, not loading) without touching the network.
func (r *Resolver) Resolve(ctx context.Context, id *identity.Identity) Snapshot {
	if id == nil || id.Email == "" {
		return Snapshot{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if role, ok := r.cache[id.Email]; ok {
		return Snapshot{Role: role}
	}

	if !r.inflight[id.Email] {
		r.inflight[id.Email] = true
		go r.fetchRole(id.Email)
	}

	return Snapshot{Loading: true}
}

// Invalidate drops the cached role for an email so the next Resolve
// re-fetches it. Used after role-mutating actions elsewhere in the app.
func (r *Resolver) Invalidate(email string) {
	r.mu.Lock()
	delete(r.cache, email)
	r.mu.Unlock()
	r.notify()
}

// Subscribe registers a listener invoked whenever a fetch completes or a
// cache entry is invalidated, and returns an unsubscribe function
func (r *Resolver) Subscribe(fn func()) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// fetchRole runs off the render path; completion updates the cache and
// notifies subscribers so dependent gates re-evaluate
func (r *Resolver) fetchRole(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	raw, err := r.fetch.UserRole(ctx, email)

	resolved := Unknown
	if err != nil {
		// Fail closed: an unreachable or unhappy role endpoint grants nothing
		r.log.Warn().Err(err).Str("email", email).Msg("Role fetch failed")
	} else {
		resolved = Parse(raw)
		if !resolved.Known() {
			r.log.Warn().Str("email", email).Str("role", raw).Msg("Role outside the known set")
		}
	}

	r.mu.Lock()
	delete(r.inflight, email)

	// Stale-result guard: the session may have changed while the fetch was
	// in flight. A result for an email that no longer matches the current
	// session is discarded, not cached.
	current := r.sessions.Current()
	if current.Loading || current.Identity == nil || current.Identity.Email != email {
		r.mu.Unlock()
		r.log.Debug().Str("email", email).Msg("Dropping stale role result")
		return
	}

	r.cache[email] = resolved
	r.mu.Unlock()

	r.notify()
}

func (r *Resolver) notify() {
	r.mu.Lock()
	listeners := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
