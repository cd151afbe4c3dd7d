package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brightform/userhub/internal/config"
	"github.com/brightform/userhub/internal/domain"
	httphandler "github.com/brightform/userhub/internal/http/handler"
	httpmiddleware "github.com/brightform/userhub/internal/http/middleware"
	"github.com/brightform/userhub/internal/identity"
	"github.com/brightform/userhub/internal/repository"
	"github.com/brightform/userhub/internal/service"
)

func newTestHandler(users repository.UserRepository, idp identity.Provider) *httphandler.UserHandler {
	cfg := config.Config{SignupDefaultRole: domain.RoleAdmin, IdentityTimeout: time.Second}
	logger := zap.NewNop()
	provisioning := service.NewProvisioningService(users, idp, cfg, logger)
	directory := service.NewDirectoryService(users, logger)
	return httphandler.NewUserHandler(provisioning, directory)
}

func performJSON(t *testing.T, handlerFunc gin.HandlerFunc, method, target string, body any, caller *identity.Caller) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if caller != nil {
		c.Set("caller", caller)
	}

	handlerFunc(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegisterReturns201WithAdminRole(t *testing.T) {
	h := newTestHandler(newMemRepo(), &stubProvider{id: "idp-1", active: true})

	w := performJSON(t, h.Register, http.MethodPost, "/users", map[string]any{
		"name":     "Ann",
		"email":    "ann@x.com",
		"password": "longenough1",
		"role":     "USER",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	require.Equal(t, "idp-1", data["id"])
	require.Equal(t, "ADMIN", data["role"])
	require.NotContains(t, body, "message")
}

func TestRegisterPendingConfirmationIncludesMessage(t *testing.T) {
	h := newTestHandler(newMemRepo(), &stubProvider{id: "idp-2", active: false})

	w := performJSON(t, h.Register, http.MethodPost, "/users", map[string]any{
		"name":     "Bob",
		"email":    "bob@x.com",
		"password": "longenough1",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.Contains(t, body["message"], "confirm your account")
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing email", map[string]any{"name": "Ann", "password": "longenough1"}},
		{"bad email", map[string]any{"name": "Ann", "email": "not-an-email", "password": "longenough1"}},
		{"short password", map[string]any{"name": "Ann", "email": "ann@x.com", "password": "short"}},
		{"numeric name", map[string]any{"name": "Ann123", "email": "ann@x.com", "password": "longenough1"}},
		{"one letter name", map[string]any{"name": "A", "email": "ann@x.com", "password": "longenough1"}},
		{"unknown role", map[string]any{"name": "Ann", "email": "ann@x.com", "password": "longenough1", "role": "ROOT"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(newMemRepo(), &stubProvider{id: "x", active: true})
			w := performJSON(t, h.Register, http.MethodPost, "/users", tc.payload, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			require.Contains(t, body, "error")
		})
	}
}

func TestRegisterDuplicateEmailReturns409(t *testing.T) {
	repo := newMemRepo()
	repo.seed(domain.User{ID: "idp-0", Email: "ann@x.com", Role: domain.RoleAdmin})
	h := newTestHandler(repo, &stubProvider{id: "idp-1", active: true})

	w := performJSON(t, h.Register, http.MethodPost, "/users", map[string]any{
		"name":     "Ann",
		"email":    "ann@x.com",
		"password": "longenough1",
	}, nil)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "Email already exists", decodeBody(t, w)["error"])
}

func TestListRequiresAdmin(t *testing.T) {
	repo := newMemRepo()
	repo.seed(domain.User{ID: "1", Name: "Ann", Email: "ann@x.com", Role: domain.RoleAdmin})
	h := newTestHandler(repo, &stubProvider{})

	w := performJSON(t, h.List, http.MethodGet, "/users", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = performJSON(t, h.List, http.MethodGet, "/users", nil, &identity.Caller{ID: "2", Role: domain.RoleUser})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListReturnsCollectionWithoutPasswordHash(t *testing.T) {
	repo := newMemRepo()
	repo.seed(domain.User{
		ID: "1", Name: "Ann", Email: "ann@x.com", Role: domain.RoleAdmin,
		PasswordHash: "$argon2id$secret", CreatedAt: time.Now().UTC(),
		CreatedTeams: []domain.Team{{ID: "t1", Name: "Platform"}},
	})
	h := newTestHandler(repo, &stubProvider{})

	w := performJSON(t, h.List, http.MethodGet, "/users", nil, &identity.Caller{ID: "1", Role: domain.RoleAdmin})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "argon2id")

	body := decodeBody(t, w)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	entry := data[0].(map[string]any)
	require.Equal(t, "ann@x.com", entry["email"])
	teams := entry["createdTeams"].([]any)
	require.Equal(t, "Platform", teams[0].(map[string]any)["name"])
}

// Middleware round trip via the router: session required for GET /users.
func TestRouterListRejectsMissingBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler(newMemRepo(), &stubProvider{})
	auth := &httpmiddleware.Auth{Verifier: identity.NewVerifier(identity.NewStaticKeyset([]byte("0123456789abcdef0123456789abcdef")))}

	r := gin.New()
	r.GET("/users", auth.RequireSession, h.List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

type memRepo struct {
	users map[string]domain.User
	order []string
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]domain.User)}
}

func (m *memRepo) seed(user domain.User) {
	m.users[user.Email] = user
	m.order = append(m.order, user.Email)
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := m.users[email]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *memRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	if _, exists := m.users[user.Email]; exists {
		return domain.User{}, repository.ErrDuplicateEmail
	}
	user.CreatedAt = time.Now().UTC()
	m.users[user.Email] = user
	m.order = append(m.order, user.Email)
	return user, nil
}

func (m *memRepo) List(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(m.order))
	for _, email := range m.order {
		result = append(result, m.users[email])
	}
	return result, nil
}

type stubProvider struct {
	id     string
	active bool
}

func (s *stubProvider) Signup(_ context.Context, _ identity.SignupParams) (identity.Signup, error) {
	if s.active {
		return identity.Signup{ID: s.id, Confirmation: identity.ActiveSession{AccessToken: "token"}}, nil
	}
	return identity.Signup{ID: s.id, Confirmation: identity.PendingConfirmation{}}, nil
}

func (s *stubProvider) Delete(context.Context, string) error { return nil }
