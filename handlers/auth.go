package handlers

import (
	"errors"
	"log"
	"net/http"

	"watchlog/models"
	"watchlog/services/auth"
)

type authService interface {
	BeginLogin(w http.ResponseWriter, r *http.Request) (string, error)
	CompleteLogin(w http.ResponseWriter, r *http.Request) (models.User, error)
	Logout(w http.ResponseWriter, r *http.Request) (string, error)
	CurrentUser(r *http.Request) (models.User, error)
}

var _ authService = (*auth.Service)(nil)

type AuthHandler struct {
	Service authService
}

func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{Service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.Service.BeginLogin(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback finishes the login. Any failure sends the browser back to the
// login entry point instead of an error page.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.CompleteLogin(w, r); err != nil {
		log.Printf("[auth] Login callback failed: %v", err)
		http.Redirect(w, r, "/api/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.Service.Logout(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.CurrentUser(r)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
