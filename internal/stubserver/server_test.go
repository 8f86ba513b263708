package stubserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			DatabaseURL: filepath.Join(t.TempDir(), "test.sqlite"),
			JWTSecret:   "test-secret",
		},
	}

	server, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return server
}

// do issues one request against the router and returns the recorder
func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// registerUser creates an account and returns its bearer token
func registerUser(t *testing.T, s *Server, email, name string) string {
	t.Helper()

	w := do(t, s, http.MethodPost, "/identity/register", "", RegisterRequest{
		Email:    email,
		Password: "password123",
		Name:     name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp TokenResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// setRole changes an account's role directly in the database
func setRole(t *testing.T, s *Server, email, role string) {
	t.Helper()
	require.NoError(t, s.db.Model(&models.User{}).Where("email = ?", email).Update("role", role).Error)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "online")
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	registerUser(t, s, "alice@example.com", "Alice")

	// Duplicate registration is rejected
	w := do(t, s, http.MethodPost, "/identity/register", "", RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Correct credentials sign in
	w = do(t, s, http.MethodPost, "/identity/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp TokenResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	// Wrong password fails with the same generic message as a missing account
	w = do(t, s, http.MethodPost, "/identity/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password")

	w = do(t, s, http.MethodPost, "/identity/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestFederatedSignIn(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/identity/federated", "", struct{}{})
	require.Equal(t, http.StatusOK, w.Code)

	// A second federated sign-in resolves to the same canned account
	w = do(t, s, http.MethodPost, "/identity/federated", "", struct{}{})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Where("email = ?", federatedEmail).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRoleLookup(t *testing.T) {
	s := newTestServer(t)
	aliceToken := registerUser(t, s, "alice@example.com", "Alice")
	registerUser(t, s, "bob@example.com", "Bob")

	// Unauthenticated lookup is rejected
	w := do(t, s, http.MethodGet, "/users/role/alice@example.com", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Accounts read their own role
	w = do(t, s, http.MethodGet, "/users/role/alice@example.com", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	decode(t, w, &resp)
	require.Equal(t, models.RoleUser, resp["role"])

	// Reading someone else's role requires admin
	w = do(t, s, http.MethodGet, "/users/role/bob@example.com", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	setRole(t, s, "alice@example.com", models.RoleAdmin)
	w = do(t, s, http.MethodGet, "/users/role/bob@example.com", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestVendorGating(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "vendor@example.com", "Vendor")

	listing := AddProductRequest{
		ItemName:     "Tomato",
		MarketName:   "Central Market",
		PricePerUnit: 55,
		Unit:         "kg",
		Date:         "2026-08-31",
	}

	// A plain user may not submit listings
	w := do(t, s, http.MethodPost, "/productAdd", token, listing)
	require.Equal(t, http.StatusForbidden, w.Code)

	// The role lives in the database, not the token: promotion takes effect
	// on the very next request without re-issuing the token
	setRole(t, s, "vendor@example.com", models.RoleVendor)
	w = do(t, s, http.MethodPost, "/productAdd", token, listing)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Product
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "vendor@example.com", created.VendorEmail)

	// The listing is publicly readable
	w = do(t, s, http.MethodGet, "/product", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []models.Product
	decode(t, w, &products)
	require.Len(t, products, 1)
	require.Equal(t, "Tomato", products[0].ItemName)
}

func TestAdminGating(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "alice@example.com", "Alice")
	registerUser(t, s, "bob@example.com", "Bob")

	w := do(t, s, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Vendors are not admins either
	setRole(t, s, "alice@example.com", models.RoleVendor)
	w = do(t, s, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	setRole(t, s, "alice@example.com", models.RoleAdmin)
	w = do(t, s, http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []UserDetail
	decode(t, w, &users)
	require.Len(t, users, 2)

	// Admins change roles through the API
	w = do(t, s, http.MethodPatch, "/users/role/bob@example.com", token, SetRoleRequest{Role: models.RoleVendor})
	require.Equal(t, http.StatusOK, w.Code)

	var bob models.User
	require.NoError(t, s.db.Where("email = ?", "bob@example.com").First(&bob).Error)
	require.Equal(t, models.RoleVendor, bob.Role)

	// Role values outside the closed set are rejected
	w = do(t, s, http.MethodPatch, "/users/role/bob@example.com", token, map[string]string{"role": "superuser"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWatchlistFlow(t *testing.T) {
	s := newTestServer(t)

	vendorToken := registerUser(t, s, "vendor@example.com", "Vendor")
	setRole(t, s, "vendor@example.com", models.RoleVendor)
	w := do(t, s, http.MethodPost, "/productAdd", vendorToken, AddProductRequest{
		ItemName:     "Onion",
		MarketName:   "North Market",
		PricePerUnit: 30,
		Unit:         "kg",
		Date:         "2026-08-31",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var product models.Product
	decode(t, w, &product)

	userToken := registerUser(t, s, "alice@example.com", "Alice")

	w = do(t, s, http.MethodPost, "/watchlist", userToken, AddWatchItemRequest{ProductID: product.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var entry WatchItemResponse
	decode(t, w, &entry)
	require.Equal(t, "Onion", entry.ItemName)
	require.Equal(t, 30.0, entry.PricePerUnit)

	// Watching the same product twice is rejected
	w = do(t, s, http.MethodPost, "/watchlist", userToken, AddWatchItemRequest{ProductID: product.ID})
	require.Equal(t, http.StatusConflict, w.Code)

	// The list carries the live product price
	w = do(t, s, http.MethodGet, "/watchlist", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []WatchItemResponse
	decode(t, w, &items)
	require.Len(t, items, 1)

	// Another user cannot delete someone else's entry
	otherToken := registerUser(t, s, "bob@example.com", "Bob")
	w = do(t, s, http.MethodDelete, "/watchlist/"+entry.ID, otherToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/watchlist/"+entry.ID, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/watchlist", userToken, nil)
	decode(t, w, &items)
	require.Empty(t, items)
}

func TestPaymentsFlow(t *testing.T) {
	s := newTestServer(t)

	vendorToken := registerUser(t, s, "vendor@example.com", "Vendor")
	setRole(t, s, "vendor@example.com", models.RoleVendor)
	w := do(t, s, http.MethodPost, "/productAdd", vendorToken, AddProductRequest{
		ItemName:     "Rice",
		MarketName:   "South Market",
		PricePerUnit: 120,
		Unit:         "kg",
		Date:         "2026-08-31",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var product models.Product
	decode(t, w, &product)

	userToken := registerUser(t, s, "alice@example.com", "Alice")

	w = do(t, s, http.MethodPost, "/create-payment-intent", userToken, CreatePaymentIntentRequest{Amount: 12000})
	require.Equal(t, http.StatusOK, w.Code)
	var intent map[string]string
	decode(t, w, &intent)
	require.True(t, strings.HasPrefix(intent["client_secret"], "pi_"))
	require.Contains(t, intent["client_secret"], "_secret_")

	w = do(t, s, http.MethodPost, "/payments", userToken, RecordPaymentRequest{
		ProductID:     product.ID,
		Amount:        120,
		TransactionID: "pi_deadbeef",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Payment history is scoped to the caller
	w = do(t, s, http.MethodGet, "/payments", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []models.Payment
	decode(t, w, &payments)
	require.Len(t, payments, 1)
	require.Equal(t, "pi_deadbeef", payments[0].TransactionID)

	otherToken := registerUser(t, s, "bob@example.com", "Bob")
	w = do(t, s, http.MethodGet, "/payments", otherToken, nil)
	decode(t, w, &payments)
	require.Empty(t, payments)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestProfileUpdateReissuesToken(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "alice@example.com", "Alice")

	w := do(t, s, http.MethodPatch, "/identity/profile", token, UpdateProfileRequest{
		DisplayName: "Alice Cooper",
		PhotoURL:    "https://example.com/alice.png",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	require.Equal(t, "Alice Cooper", user.Name)
	require.Equal(t, "https://example.com/alice.png", user.PhotoURL)
}
