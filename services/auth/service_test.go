package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlog/config"
	"watchlog/models"
)

type fakeUserStore struct {
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Upsert(ctx context.Context, user models.User) (models.User, error) {
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserStore) Get(ctx context.Context, id string) (models.User, bool, error) {
	user, ok := s.users[id]
	return user, ok, nil
}

// fakeIssuer serves just enough of an OIDC discovery document for provider
// setup to succeed.
func fakeIssuer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 server.URL,
			"authorization_endpoint": server.URL + "/auth",
			"token_endpoint":         server.URL + "/token",
			"jwks_uri":               server.URL + "/keys",
			"end_session_endpoint":   server.URL + "/logout",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []any{}})
	})

	return server
}

func newTestAuth(t *testing.T) *Service {
	t.Helper()

	issuer := fakeIssuer(t)
	svc, err := NewService(context.Background(), config.AuthSettings{
		IssuerURL:     issuer.URL,
		ClientID:      "watchlog-client",
		SessionSecret: "test-secret",
	}, "http://localhost:8484", newFakeUserStore())
	require.NoError(t, err)
	return svc
}

func TestBeginLoginBuildsPKCEAuthURL(t *testing.T) {
	svc := newTestAuth(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/login", nil)

	authURL, err := svc.BeginLogin(w, r)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "watchlog-client", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8484/api/callback", q.Get("redirect_uri"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEmpty(t, q.Get("state"))
	assert.Contains(t, q.Get("scope"), "openid")

	// The flow state rides in a session cookie.
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestCompleteLoginRejectsStateMismatch(t *testing.T) {
	svc := newTestAuth(t)

	loginW := httptest.NewRecorder()
	loginR := httptest.NewRequest(http.MethodGet, "/api/login", nil)
	_, err := svc.BeginLogin(loginW, loginR)
	require.NoError(t, err)

	callbackR := httptest.NewRequest(http.MethodGet, "/api/callback?code=abc&state=forged", nil)
	for _, c := range loginW.Result().Cookies() {
		callbackR.AddCookie(c)
	}

	_, err = svc.CompleteLogin(httptest.NewRecorder(), callbackR)
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestCurrentUserWithoutSession(t *testing.T) {
	svc := newTestAuth(t)

	r := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	_, err := svc.CurrentUser(r)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, svc.LoggedIn(r))
}

func TestLogoutRedirectsToEndSession(t *testing.T) {
	svc := newTestAuth(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/logout", nil)

	redirect, err := svc.Logout(w, r)
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "/logout", parsed.Path)
	assert.Equal(t, "watchlog-client", parsed.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:8484/", parsed.Query().Get("post_logout_redirect_uri"))
}
