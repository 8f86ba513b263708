package role

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/identity"
	"github.com/pricewatch-dev/pricewatch/internal/session"
)

// stubProvider drives the session store; only Subscribe matters here
type stubProvider struct {
	mu        sync.Mutex
	listeners map[int]identity.Listener
	nextID    int
}

func newStubProvider() *stubProvider {
	return &stubProvider{listeners: make(map[int]identity.Listener)}
}

func (p *stubProvider) emit(id *identity.Identity) {
	p.mu.Lock()
	listeners := make([]identity.Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()
	for _, l := range listeners {
		l(id)
	}
}

func (p *stubProvider) Subscribe(l identity.Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *stubProvider) Token() string { return "" }
func (p *stubProvider) CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error) {
	return nil, errors.New("not implemented")
}
func (p *stubProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	return nil, errors.New("not implemented")
}
func (p *stubProvider) SignInWithProvider(ctx context.Context) (*identity.Identity, error) {
	return nil, errors.New("not implemented")
}
func (p *stubProvider) SignOut(ctx context.Context) error { return nil }
func (p *stubProvider) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	return nil
}

// fakeFetcher is a controllable role endpoint
type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	role  string
	err   error
	block chan struct{} // when non-nil, UserRole waits on it before returning
}

func (f *fakeFetcher) UserRole(ctx context.Context, email string) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	role, err := f.role, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return role, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newTestResolver builds a resolver over a session signed in as email
func newTestResolver(fetch *fakeFetcher, email string) (*Resolver, *stubProvider) {
	provider := newStubProvider()
	sessions := session.New(provider, zerolog.Nop())
	provider.emit(&identity.Identity{ID: "u1", Email: email})
	return New(fetch, sessions, zerolog.Nop()), provider
}

// awaitNotify blocks until the resolver notifies or the timeout elapses
func awaitNotify(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resolver notification")
	}
}

func subscribeNotify(r *Resolver) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	unsubscribe := r.Subscribe(func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	return ch, unsubscribe
}

func TestResolveNilIdentity(t *testing.T) {
	fetch := &fakeFetcher{role: "user"}
	resolver, _ := newTestResolver(fetch, "alice@example.com")

	snap := resolver.Resolve(context.Background(), nil)
	if snap.Loading {
		t.Error("nil identity must resolve immediately, not load")
	}
	if snap.Role != Unknown {
		t.Errorf("nil identity must resolve to Unknown, got %s", snap.Role)
	}
	if fetch.callCount() != 0 {
		t.Errorf("nil identity must not hit the network, got %d calls", fetch.callCount())
	}
}

func TestResolveCachesPerEmail(t *testing.T) {
	fetch := &fakeFetcher{role: "vendor"}
	resolver, _ := newTestResolver(fetch, "alice@example.com")
	notify, unsubscribe := subscribeNotify(resolver)
	defer unsubscribe()

	id := &identity.Identity{ID: "u1", Email: "alice@example.com"}

	snap := resolver.Resolve(context.Background(), id)
	if !snap.Loading {
		t.Fatal("first resolve for an uncached email must be loading")
	}

	awaitNotify(t, notify)

	snap = resolver.Resolve(context.Background(), id)
	if snap.Loading {
		t.Fatal("resolve after fetch completion must not be loading")
	}
	if snap.Role != Vendor {
		t.Errorf("expected vendor, got %s", snap.Role)
	}

	// Repeated resolutions serve from cache
	for i := 0; i < 5; i++ {
		resolver.Resolve(context.Background(), id)
	}
	if got := fetch.callCount(); got != 1 {
		t.Errorf("expected exactly 1 fetch per email, got %d", got)
	}
}

func TestResolveCoalescesInflightFetches(t *testing.T) {
	block := make(chan struct{})
	fetch := &fakeFetcher{role: "user", block: block}
	resolver, _ := newTestResolver(fetch, "alice@example.com")
	notify, unsubscribe := subscribeNotify(resolver)
	defer unsubscribe()

	id := &identity.Identity{ID: "u1", Email: "alice@example.com"}
	for i := 0; i < 3; i++ {
		if snap := resolver.Resolve(context.Background(), id); !snap.Loading {
			t.Fatal("expected loading while the fetch is in flight")
		}
	}

	close(block)
	awaitNotify(t, notify)

	if got := fetch.callCount(); got != 1 {
		t.Errorf("concurrent resolves must share one fetch, got %d", got)
	}
}

func TestResolveFailsClosedOnFetchError(t *testing.T) {
	fetch := &fakeFetcher{err: errors.New("boom")}
	resolver, _ := newTestResolver(fetch, "alice@example.com")
	notify, unsubscribe := subscribeNotify(resolver)
	defer unsubscribe()

	id := &identity.Identity{ID: "u1", Email: "alice@example.com"}
	resolver.Resolve(context.Background(), id)
	awaitNotify(t, notify)

	snap := resolver.Resolve(context.Background(), id)
	if snap.Loading {
		t.Fatal("fetch error must still resolve the snapshot")
	}
	if snap.Role.Known() {
		t.Errorf("fetch error must resolve to Unknown, got %s", snap.Role)
	}
}

func TestResolveUnknownRoleValue(t *testing.T) {
	fetch := &fakeFetcher{role: "superuser"}
	resolver, _ := newTestResolver(fetch, "alice@example.com")
	notify, unsubscribe := subscribeNotify(resolver)
	defer unsubscribe()

	id := &identity.Identity{ID: "u1", Email: "alice@example.com"}
	resolver.Resolve(context.Background(), id)
	awaitNotify(t, notify)

	snap := resolver.Resolve(context.Background(), id)
	if snap.Role != Unknown {
		t.Errorf("a role outside the known set must resolve to Unknown, got %s", snap.Role)
	}
}

func TestStaleResultDropped(t *testing.T) {
	block := make(chan struct{})
	fetch := &fakeFetcher{role: "admin", block: block}
	resolver, provider := newTestResolver(fetch, "alice@example.com")

	alice := &identity.Identity{ID: "u1", Email: "alice@example.com"}
	resolver.Resolve(context.Background(), alice)

	// The session moves to a different identity while the fetch is in flight
	provider.emit(&identity.Identity{ID: "u2", Email: "bob@example.com"})
	close(block)

	// The stale result must not land in the cache: a later resolve for alice
	// issues a fresh fetch instead of returning the dropped admin role.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := resolver.Resolve(context.Background(), alice)
		if !snap.Loading {
			t.Fatalf("stale result was cached: resolved to %s", snap.Role)
		}
		if fetch.callCount() >= 2 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the re-fetch")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	fetch := &fakeFetcher{role: "user"}
	resolver, _ := newTestResolver(fetch, "alice@example.com")
	notify, unsubscribe := subscribeNotify(resolver)
	defer unsubscribe()

	id := &identity.Identity{ID: "u1", Email: "alice@example.com"}
	resolver.Resolve(context.Background(), id)
	awaitNotify(t, notify)

	resolver.Invalidate("alice@example.com")
	awaitNotify(t, notify)

	snap := resolver.Resolve(context.Background(), id)
	if !snap.Loading {
		t.Fatal("resolve after invalidation must re-fetch")
	}
	awaitNotify(t, notify)

	if got := fetch.callCount(); got != 2 {
		t.Errorf("expected 2 fetches around an invalidation, got %d", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"user", User},
		{"vendor", Vendor},
		{"admin", Admin},
		{"", Unknown},
		{"superuser", Unknown},
		{"Admin", Unknown},
		{"ADMIN", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Parse(tt.in); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
