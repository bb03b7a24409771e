package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"chatroom/internal/directory"
	"chatroom/internal/domain"
	"chatroom/internal/feed"
	"chatroom/internal/security"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// MakeHandler returns an HTTP handler for the /ws endpoint.
// Authenticates via Bearer token (Authorization header or
// Sec-WebSocket-Protocol), streams room snapshots to every connection, and
// dispatches events:
//   - join       -> subscribe to a room's message feed (tears down the previous one)
//   - leave      -> tear down the current feed subscription
//   - message    -> send into the joined room
//   - reaction   -> toggle an emoji reaction on a message
//   - visibility -> presence heartbeat for the connected principal
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	profiles domain.ProfileStore,
	dir *directory.Directory,
	fd *feed.Feed,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			if authErr, ok := err.(wsAuthError); ok {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sub, err := tokens.Subject(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		principal, err := profiles.GetProfile(ctx, sub)
		if err != nil || principal == nil {
			http.Error(w, "principal not found", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn)
		defer client.Close()

		setOnline := func(ctx context.Context, online bool) {
			if err := profiles.UpsertProfile(ctx, principal.ID, domain.PresencePatch(online, time.Now().UTC())); err != nil {
				log.Warn().Err(err).Str("principal_id", principal.ID).Msg("ws: presence write dropped")
			}
		}

		setOnline(ctx, true)
		hub.Register(principal.ID, client)

		// Feed teardown handle for the currently joined room, nil when idle.
		var leaveRoom func()

		defer func() {
			if leaveRoom != nil {
				leaveRoom()
			}
			hub.Unregister(principal.ID, client)
			setOnline(context.Background(), false)
			hub.BroadcastAll(map[string]any{
				"type":         "user_offline",
				"principal_id": principal.ID,
				"display_name": principal.DisplayName,
			})
		}()
		hub.BroadcastAll(map[string]any{
			"type":         "user_online",
			"principal_id": principal.ID,
			"display_name": principal.DisplayName,
		})

		// Every connection receives the live room list.
		cancelRooms, err := dir.SubscribeRooms(func(rooms []domain.Room) {
			_ = client.WriteJSON(map[string]any{
				"type":  "rooms",
				"rooms": rooms,
			})
		})
		if err != nil {
			log.Error().Err(err).Msg("ws: room subscription failed")
			return
		}
		defer cancelRooms()

		for {
			var payload map[string]any
			if err := conn.ReadJSON(&payload); err != nil {
				break
			}
			msgType, _ := payload["type"].(string)
			switch msgType {

			case "join":
				roomID, _ := payload["room_id"].(string)
				if roomID == "" {
					sendError(client, "join requires room_id")
					continue
				}
				// Tear down the previous feed before opening the new one so
				// the consumer never holds two live message subscriptions.
				if leaveRoom != nil {
					leaveRoom()
					leaveRoom = nil
				}
				cancel, err := fd.Subscribe(roomID, func(msgs []domain.Message) {
					_ = client.WriteJSON(map[string]any{
						"type":     "messages",
						"room_id":  roomID,
						"messages": msgs,
					})
				})
				if err != nil {
					log.Error().Err(err).Str("room_id", roomID).Msg("ws: feed subscription failed")
					sendError(client, "failed to join room")
					continue
				}
				leaveRoom = cancel

			case "leave":
				if leaveRoom != nil {
					leaveRoom()
					leaveRoom = nil
				}

			case "message":
				roomID, _ := payload["room_id"].(string)
				text, _ := payload["text"].(string)
				if roomID == "" {
					sendError(client, "message requires room_id")
					continue
				}
				composer := feed.NewComposer(text)
				if err := fd.Send(ctx, roomID, principal, composer); err != nil {
					log.Warn().Err(err).Str("room_id", roomID).Msg("ws: send failed")
					sendError(client, "failed to send message")
				}

			case "reaction":
				messageID, _ := payload["message_id"].(string)
				emoji, _ := payload["emoji"].(string)
				if messageID == "" || emoji == "" {
					sendError(client, "reaction requires message_id and emoji")
					continue
				}
				if err := fd.ToggleReaction(ctx, messageID, emoji, principal); err != nil {
					log.Warn().Err(err).Str("message_id", messageID).Msg("ws: reaction failed")
					sendError(client, "failed to toggle reaction")
				}

			case "visibility":
				visible, _ := payload["visible"].(bool)
				setOnline(ctx, visible)

			default:
				log.Warn().Str("event", msgType).Str("principal_id", principal.ID).Msg("ws: unknown event type")
			}
		}
	}
}

func sendError(c *Client, msg string) {
	_ = c.WriteJSON(map[string]any{
		"type":    "error",
		"message": msg,
	})
}
