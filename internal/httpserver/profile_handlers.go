package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatroom/internal/domain"
)

func handleListOnlineProfiles(profiles domain.ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := profiles.ListOnlineProfiles(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if list == nil {
			list = []domain.Principal{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetProfile(profiles domain.ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "profileID")
		profile, err := profiles.GetProfile(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if profile == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
