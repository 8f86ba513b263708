package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/credstore"
)

// HTTPProvider implements Provider against the identity service's REST
// endpoints. Tokens are persisted in the credential store so a session
// survives process restarts until the token expires.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
	creds      credstore.Store
	log        zerolog.Logger

	mu        sync.Mutex
	started   bool
	token     string
	current   *Identity
	listeners map[int]Listener
	nextID    int
}

// NewHTTP creates a provider for the identity service at baseURL
func NewHTTP(baseURL string, creds credstore.Store, log zerolog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds:     creds,
		log:       log,
		listeners: make(map[int]Listener),
	}
}

// SetHTTPClient sets a custom HTTP client
func (p *HTTPProvider) SetHTTPClient(httpClient *http.Client) {
	p.httpClient = httpClient
}

// Start resolves the provider's initial state by replaying the persisted
// token, then notifies all listeners exactly once. Listeners registered
// before Start are guaranteed to observe the initial state.
func (p *HTTPProvider) Start(ctx context.Context) error {
	token, err := p.creds.Load()
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return err
	}

	var id *Identity
	if token != "" {
		id, err = identityFromToken(token)
		if err != nil {
			// Expired or mangled token: treat as signed out
			p.log.Debug().Err(err).Msg("Discarding persisted token")
			_ = p.creds.Delete()
			token = ""
		}
	}

	p.mu.Lock()
	p.started = true
	p.mu.Unlock()

	p.setState(token, id)
	return nil
}

// Subscribe registers a state-change listener. If the provider has already
// resolved its initial state, the listener is invoked immediately.
func (p *HTTPProvider) Subscribe(l Listener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	started := p.started
	current := p.current
	p.mu.Unlock()

	if started {
		l(current)
	}

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Token returns the current bearer credential, empty when signed out
func (p *HTTPProvider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

// CreateAccount registers a new account and signs it in
func (p *HTTPProvider) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	return p.exchange(ctx, http.MethodPost, "/identity/register", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignIn establishes a session from email/password credentials
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	return p.exchange(ctx, http.MethodPost, "/identity/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignInWithProvider establishes a session via the federated flow
func (p *HTTPProvider) SignInWithProvider(ctx context.Context) (*Identity, error) {
	return p.exchange(ctx, http.MethodPost, "/identity/federated", struct{}{})
}

// SignOut terminates the session. The identity provider holds no server-side
// session state; signing out drops the credential locally.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	if err := p.creds.Delete(); err != nil {
		return err
	}
	p.setState("", nil)
	return nil
}

// UpdateProfile mutates the identity's display attributes. The service
// re-issues the token with the new claims.
func (p *HTTPProvider) UpdateProfile(ctx context.Context, displayName, photoURL string) error {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()
	if token == "" {
		return ErrNotSignedIn
	}

	_, err := p.exchange(ctx, http.MethodPatch, "/identity/profile", map[string]string{
		"display_name": displayName,
		"photo_url":    photoURL,
	})
	return err
}

// exchange posts a request to an identity endpoint, expects a token in the
// response, persists it and publishes the new session state.
func (p *HTTPProvider) exchange(ctx context.Context, method, path string, body any) (*Identity, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	p.mu.Lock()
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	p.mu.Unlock()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("identity request failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	id, err := identityFromToken(tokenResp.Token)
	if err != nil {
		return nil, err
	}

	if err := p.creds.Save(tokenResp.Token); err != nil {
		// The in-memory session is still valid; it just won't survive restart
		p.log.Warn().Err(err).Msg("Failed to persist token")
	}

	p.setState(tokenResp.Token, id)
	return id, nil
}

// setState swaps the session state and notifies every listener once
func (p *HTTPProvider) setState(token string, id *Identity) {
	p.mu.Lock()
	p.token = token
	p.current = id
	listeners := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(id)
	}
}
