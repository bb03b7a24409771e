package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatroom/internal/directory"
	"chatroom/internal/domain"
	"chatroom/internal/feed"
)

type createRoomRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type createMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type toggleReactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

func handleListRooms(rooms domain.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rooms.ListRooms(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if list == nil {
			list = []domain.Room{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreateRoom(dir *directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := CurrentPrincipal(r)
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if err := dir.CreateRoom(r.Context(), req.Name, req.Description, principal.ID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func handleListMessages(messages domain.MessageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		list, err := messages.ListMessages(r.Context(), roomID, 0)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if list == nil {
			list = []domain.Message{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreateMessage(fd *feed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := CurrentPrincipal(r)
		roomID := chi.URLParam(r, "roomID")

		var req createMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		composer := feed.NewComposer(req.Text)
		if err := fd.Send(r.Context(), roomID, principal, composer); err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func handleToggleReaction(fd *feed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := CurrentPrincipal(r)
		messageID := chi.URLParam(r, "messageID")

		var req toggleReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if err := fd.ToggleReaction(r.Context(), messageID, req.Emoji, principal); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
