package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"watchlog/config"
	"watchlog/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrStateMismatch    = errors.New("oauth state mismatch")
	ErrMissingIDToken   = errors.New("token response missing id_token")
)

const (
	sessionName      = "watchlog_session"
	sessionKeyState  = "oauth_state"
	sessionKeyPKCE   = "pkce_verifier"
	sessionKeyUserID = "user_id"
)

// UserStore persists users discovered through login claims.
type UserStore interface {
	Upsert(ctx context.Context, user models.User) (models.User, error)
	Get(ctx context.Context, id string) (models.User, bool, error)
}

// Service implements the authorization-code-with-PKCE login flow against an
// OIDC issuer. All transient flow state (anti-forgery state, code verifier)
// and the logged-in user id live in an encrypted cookie session.
type Service struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	store    sessions.Store
	users    UserStore

	endSessionURL string
	publicURL     string
}

// NewService discovers the issuer's endpoints and prepares the flow. The
// redirect URL is publicURL + /api/callback.
func NewService(ctx context.Context, cfg config.AuthSettings, publicURL string, users UserStore) (*Service, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering oidc issuer: %w", err)
	}

	var discovery struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&discovery); err != nil {
		return nil, fmt.Errorf("reading issuer metadata: %w", err)
	}

	publicURL = strings.TrimRight(publicURL, "/")

	cookieStore := sessions.NewCookieStore(sessionKeys(cfg.SessionSecret)...)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(publicURL, "https://"),
	}

	return &Service{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  publicURL + "/api/callback",
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "offline_access"},
		},
		verifier:      provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		store:         cookieStore,
		users:         users,
		endSessionURL: discovery.EndSessionEndpoint,
		publicURL:     publicURL,
	}, nil
}

// sessionKeys derives the cookie auth and encryption keys from the
// configured secret.
func sessionKeys(secret string) [][]byte {
	authKey := sha256.Sum256([]byte("auth:" + secret))
	encKey := sha256.Sum256([]byte("enc:" + secret))
	return [][]byte{authKey[:], encKey[:]}
}

// BeginLogin stores fresh PKCE and state values in the session and returns
// the authorization URL to redirect the browser to.
func (s *Service) BeginLogin(w http.ResponseWriter, r *http.Request) (string, error) {
	state := oauth2.GenerateVerifier()
	pkce := oauth2.GenerateVerifier()

	session, _ := s.store.Get(r, sessionName)
	session.Values[sessionKeyState] = state
	session.Values[sessionKeyPKCE] = pkce
	delete(session.Values, sessionKeyUserID)
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("saving login session: %w", err)
	}

	return s.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce)), nil
}

// CompleteLogin exchanges the callback code for tokens, verifies the id
// token, upserts the user from its claims, and marks the session logged in.
func (s *Service) CompleteLogin(w http.ResponseWriter, r *http.Request) (models.User, error) {
	session, _ := s.store.Get(r, sessionName)

	state, _ := session.Values[sessionKeyState].(string)
	pkce, _ := session.Values[sessionKeyPKCE].(string)
	if state == "" || r.URL.Query().Get("state") != state {
		return models.User{}, ErrStateMismatch
	}

	token, err := s.oauth.Exchange(r.Context(), r.URL.Query().Get("code"), oauth2.VerifierOption(pkce))
	if err != nil {
		return models.User{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return models.User{}, ErrMissingIDToken
	}

	idToken, err := s.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		return models.User{}, fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.User{}, fmt.Errorf("reading id token claims: %w", err)
	}

	user, err := s.users.Upsert(r.Context(), models.User{
		ID:      claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	})
	if err != nil {
		return models.User{}, err
	}

	delete(session.Values, sessionKeyState)
	delete(session.Values, sessionKeyPKCE)
	session.Values[sessionKeyUserID] = user.ID
	if err := session.Save(r, w); err != nil {
		return models.User{}, fmt.Errorf("saving authenticated session: %w", err)
	}

	return user, nil
}

// Logout clears the session and returns where to send the browser: the
// issuer's end-session endpoint when it has one, otherwise the app root.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) (string, error) {
	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("clearing session: %w", err)
	}

	if s.endSessionURL == "" {
		return s.publicURL + "/", nil
	}

	end, err := url.Parse(s.endSessionURL)
	if err != nil {
		return s.publicURL + "/", nil
	}
	q := end.Query()
	q.Set("client_id", s.oauth.ClientID)
	q.Set("post_logout_redirect_uri", s.publicURL+"/")
	end.RawQuery = q.Encode()
	return end.String(), nil
}

// CurrentUser resolves the logged-in user from the request's session.
func (s *Service) CurrentUser(r *http.Request) (models.User, error) {
	session, _ := s.store.Get(r, sessionName)
	userID, _ := session.Values[sessionKeyUserID].(string)
	if userID == "" {
		return models.User{}, ErrNotAuthenticated
	}

	user, found, err := s.users.Get(r.Context(), userID)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, ErrNotAuthenticated
	}
	return user, nil
}

// LoggedIn reports whether the request carries an authenticated session.
func (s *Service) LoggedIn(r *http.Request) bool {
	session, _ := s.store.Get(r, sessionName)
	userID, _ := session.Values[sessionKeyUserID].(string)
	return userID != ""
}
