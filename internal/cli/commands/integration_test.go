package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/credstore"
	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/stubserver"
)

// memStore is an in-memory credential store shared across command runs to
// mimic the keyring surviving between CLI invocations
type memStore struct {
	mu    sync.Mutex
	token string
	saved bool
}

func (m *memStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.saved = true
	return nil
}

func (m *memStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return "", credstore.ErrNotFound
	}
	return m.token, nil
}

func (m *memStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.saved = false
	return nil
}

// testEnv spins up a stub marketplace and points the commands at it
type testEnv struct {
	server *stubserver.Server
	creds  *memStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			DatabaseURL: filepath.Join(t.TempDir(), "test.sqlite"),
			JWTSecret:   "test-secret",
		},
	}
	server, err := stubserver.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create stub server: %v", err)
	}

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	t.Setenv("PRICEWATCH_API_URL", ts.URL)
	t.Setenv("PRICEWATCH_IDENTITY_URL", "")
	t.Setenv("PRICEWATCH_EMAIL", "")
	t.Setenv("PRICEWATCH_PASSWORD", "")
	t.Setenv("LOG_LEVEL", "error")

	return &testEnv{server: server, creds: &memStore{}}
}

// run executes a command function with the shared credential store and a
// captured output buffer
func (e *testEnv) opts(out *bytes.Buffer) []appOption {
	return []appOption{withCredStore(e.creds), withOutput(out)}
}

func (e *testEnv) setRole(t *testing.T, email, role string) {
	t.Helper()
	if err := e.server.DB().Model(&models.User{}).Where("email = ?", email).Update("role", role).Error; err != nil {
		t.Fatalf("failed to set role: %v", err)
	}
}

func TestWhoamiRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	err := runWhoami(context.Background(), env.opts(&out)...)
	if err == nil {
		t.Fatal("expected whoami to fail without a session")
	}
	if !strings.Contains(err.Error(), "not signed in") {
		t.Errorf("expected a sign-in hint, got: %v", err)
	}
}

func TestRegisterLoginWhoamiFlow(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	if err := runRegister(context.Background(), "alice@example.com", "password123", "Alice", "", env.opts(&out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(out.String(), "Account created for alice@example.com") {
		t.Errorf("unexpected register output: %s", out.String())
	}

	// The credential persisted; a fresh command invocation resumes the session
	out.Reset()
	if err := runWhoami(context.Background(), env.opts(&out)...); err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "alice@example.com") {
		t.Errorf("whoami missing email: %s", got)
	}
	if !strings.Contains(got, "Role:  user") {
		t.Errorf("whoami missing resolved role: %s", got)
	}
	if !strings.Contains(got, "Alice") {
		t.Errorf("whoami missing display name: %s", got)
	}
}

func TestLoginWithBadPassword(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	if err := runRegister(context.Background(), "alice@example.com", "password123", "", "", env.opts(&out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := runLogout(context.Background(), env.opts(&out)...); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	err := runLogin(context.Background(), "alice@example.com", "wrong", false, env.opts(&out)...)
	if err == nil {
		t.Fatal("expected login to fail with a wrong password")
	}
	if !strings.Contains(err.Error(), "login failed") {
		t.Errorf("unexpected error: %v", err)
	}

	// The failed login must not have established a session
	var out2 bytes.Buffer
	if err := runWhoami(context.Background(), env.opts(&out2)...); err == nil {
		t.Error("expected whoami to fail after a failed login")
	}
}

func TestVendorCommandsGated(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	if err := runRegister(context.Background(), "vendor@example.com", "password123", "", "", env.opts(&out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	listing := api.AddProductRequest{
		ItemName:     "Tomato",
		MarketName:   "Central Market",
		PricePerUnit: 55,
		Unit:         "kg",
		Date:         "2026-08-31",
	}

	// A plain user is turned away before the request is even sent
	err := runProductsAdd(context.Background(), listing, env.opts(&out)...)
	if err == nil {
		t.Fatal("expected products add to be denied for a plain user")
	}
	if !strings.Contains(err.Error(), "vendor access required") {
		t.Errorf("unexpected denial message: %v", err)
	}

	env.setRole(t, "vendor@example.com", models.RoleVendor)

	out.Reset()
	if err := runProductsAdd(context.Background(), listing, env.opts(&out)...); err != nil {
		t.Fatalf("products add failed for a vendor: %v", err)
	}
	if !strings.Contains(out.String(), "Listing created") {
		t.Errorf("unexpected output: %s", out.String())
	}

	// The listing shows up in the public list
	out.Reset()
	if err := runProductsList(context.Background(), env.opts(&out)...); err != nil {
		t.Fatalf("products ls failed: %v", err)
	}
	if !strings.Contains(out.String(), "Tomato") {
		t.Errorf("listing missing from products ls: %s", out.String())
	}
}

func TestAdminCommandsGated(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	if err := runRegister(context.Background(), "admin@example.com", "password123", "", "", env.opts(&out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	err := runUsersList(context.Background(), env.opts(&out)...)
	if err == nil {
		t.Fatal("expected users ls to be denied for a plain user")
	}
	if !strings.Contains(err.Error(), "admin access required") {
		t.Errorf("unexpected denial message: %v", err)
	}

	env.setRole(t, "admin@example.com", models.RoleAdmin)

	out.Reset()
	if err := runUsersList(context.Background(), env.opts(&out)...); err != nil {
		t.Fatalf("users ls failed for an admin: %v", err)
	}
	if !strings.Contains(out.String(), "admin@example.com") {
		t.Errorf("unexpected output: %s", out.String())
	}

	// Promote another account through the CLI
	var out2 bytes.Buffer
	if err := runRegisterOther(t, env, "bob@example.com"); err != nil {
		t.Fatalf("failed to seed second account: %v", err)
	}
	if err := runUsersSetRole(context.Background(), "bob@example.com", "vendor", env.opts(&out2)...); err != nil {
		t.Fatalf("set-role failed: %v", err)
	}
	if !strings.Contains(out2.String(), "bob@example.com is now vendor") {
		t.Errorf("unexpected output: %s", out2.String())
	}
}

// runRegisterOther creates a second account without disturbing the shared
// credential store, then restores the admin session
func runRegisterOther(t *testing.T, env *testEnv, email string) error {
	t.Helper()

	adminToken := env.creds.token
	var out bytes.Buffer
	if err := runRegister(context.Background(), email, "password123", "", "", env.opts(&out)...); err != nil {
		return err
	}
	env.creds.Save(adminToken)
	return nil
}

func TestUsersSetRoleRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	err := runUsersSetRole(context.Background(), "bob@example.com", "superuser", env.opts(&out)...)
	if err == nil {
		t.Fatal("expected set-role to reject a role outside the known set")
	}
	if !strings.Contains(err.Error(), "invalid role") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	if err := runRegister(context.Background(), "alice@example.com", "password123", "", "", env.opts(&out)...); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	out.Reset()
	if err := runLogout(context.Background(), env.opts(&out)...); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(out.String(), "Signed out") {
		t.Errorf("unexpected logout output: %s", out.String())
	}

	if err := runWhoami(context.Background(), env.opts(&out)...); err == nil {
		t.Error("expected whoami to fail after logout")
	}
}
