package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chatroom/internal/auth"
	"chatroom/internal/domain"
	"chatroom/internal/security"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	Principal   *domain.Principal `json:"principal"`
}

func handleRegister(identity *auth.Service, profiles domain.ProfileStore, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		principal, err := identity.RegisterAccount(r.Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, domain.ErrConflict) {
				status = http.StatusConflict
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		now := time.Now().UTC()
		online := true
		patch := domain.ProfilePatch{
			Email:       &principal.Email,
			DisplayName: &principal.DisplayName,
			IsOnline:    &online,
			LastSeenAt:  &now,
		}
		if err := profiles.UpsertProfile(r.Context(), principal.ID, patch); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to write profile"})
			return
		}

		token, err := tokens.CreateForPrincipal(principal.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create token"})
			return
		}
		writeJSON(w, http.StatusCreated, tokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			Principal:   principal,
		})
	}
}

func handleLogin(identity *auth.Service, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		principal, err := identity.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		token, err := tokens.CreateForPrincipal(principal.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create token"})
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			Principal:   principal,
		})
	}
}

// handleLogout marks the principal offline. The write is best-effort by
// contract, but a user-initiated logout still reports the failure.
func handleLogout(profiles domain.ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := CurrentPrincipal(r)
		if principal == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		if err := profiles.UpsertProfile(r.Context(), principal.ID, domain.PresencePatch(false, time.Now().UTC())); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := CurrentPrincipal(r)
		if principal == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, principal)
	}
}
