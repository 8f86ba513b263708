package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/credstore"
	"github.com/pricewatch-dev/pricewatch/internal/gate"
	"github.com/pricewatch-dev/pricewatch/internal/identity"
	"github.com/pricewatch-dev/pricewatch/internal/logger"
	"github.com/pricewatch-dev/pricewatch/internal/role"
	"github.com/pricewatch-dev/pricewatch/internal/session"
)

// gateTimeout bounds how long a command waits for session and role to resolve
const gateTimeout = 20 * time.Second

// app wires the session subsystem for one command invocation
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	provider *identity.HTTPProvider
	sessions *session.Store
	client   *api.Client
	roles    *role.Resolver
	out      io.Writer
}

type appOption func(*appSettings)

// appSettings are the injectable seams used by tests
type appSettings struct {
	creds      credstore.Store
	httpClient *http.Client
	out        io.Writer
}

func withCredStore(creds credstore.Store) appOption {
	return func(s *appSettings) { s.creds = creds }
}

func withHTTPClient(httpClient *http.Client) appOption {
	return func(s *appSettings) { s.httpClient = httpClient }
}

func withOutput(out io.Writer) appOption {
	return func(s *appSettings) { s.out = out }
}

// newApp loads configuration, builds the identity provider, session store,
// API client and role resolver, and resolves the initial session state
func newApp(ctx context.Context, opts ...appOption) (*app, error) {
	settings := &appSettings{out: os.Stdout}
	for _, opt := range opts {
		opt(settings)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	creds := settings.creds
	if creds == nil {
		creds = credstore.NewKeyring(credRealm(cfg.Identity.BaseURL))
	}

	provider := identity.NewHTTP(cfg.Identity.BaseURL, creds, log)
	if settings.httpClient != nil {
		provider.SetHTTPClient(settings.httpClient)
	}

	sessions := session.New(provider, log)

	client := api.New(cfg.API.BaseURL, provider)
	if settings.httpClient != nil {
		client.SetHTTPClient(settings.httpClient)
	}

	roles := role.New(client, sessions, log)

	if err := provider.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		provider: provider,
		sessions: sessions,
		client:   client,
		roles:    roles,
		out:      settings.out,
	}, nil
}

// credRealm keys the keyring entry by identity service host so credentials
// for different deployments don't clobber each other
func credRealm(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return baseURL
}

// authorize evaluates the gate for the attempted view and translates a
// denial into a user-facing error. Resolving states block until the session
// and role are known.
func (a *app) authorize(ctx context.Context, g gate.Gate, from string) error {
	ctx, cancel := context.WithTimeout(ctx, gateTimeout)
	defer cancel()

	decision, err := gate.NewEvaluator(g, a.sessions, a.roles).Await(ctx, from)
	if err != nil {
		return fmt.Errorf("could not resolve session state: %w", err)
	}

	if decision.State == gate.StateDenied {
		if decision.RedirectTo == gate.LoginRoute {
			return fmt.Errorf("not signed in. Run 'pricewatch login' first")
		}
		return fmt.Errorf("%s access required", g.Name())
	}

	return nil
}

// currentRole blocks until the signed-in identity's role is resolved
func (a *app) currentRole(ctx context.Context) (role.Role, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := a.roles.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		snap := a.roles.Resolve(ctx, a.sessions.Current().Identity)
		if !snap.Loading {
			return snap.Role, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return role.Unknown, ctx.Err()
		}
	}
}
