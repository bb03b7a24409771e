// Package feed delivers the live, ordered message sequence for one room and
// handles message sends.
package feed

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"chatroom/internal/domain"
	"chatroom/internal/presence"
)

type Feed struct {
	messages domain.MessageStore
	rooms    domain.RoomStore
	presence *presence.Counter
	log      zerolog.Logger
}

func New(messages domain.MessageStore, rooms domain.RoomStore, counter *presence.Counter, log zerolog.Logger) *Feed {
	return &Feed{
		messages: messages,
		rooms:    rooms,
		presence: counter,
		log:      log,
	}
}

// Subscribe opens a live subscription for one room. The store's query is
// global and ordered by send time; the room filter is applied here, after
// ordering, preserving the delivered order exactly. Subscribing increments
// the room's participant count; the returned cancel decrements it. Cancel is
// idempotent, so rapid re-selection of the same room cannot double-count.
func (f *Feed) Subscribe(roomID string, fn func([]domain.Message)) (cancel func(), err error) {
	f.presence.Enter(roomID)

	stop, err := f.messages.WatchMessages(func(all []domain.Message) {
		fn(lo.Filter(all, func(m domain.Message, _ int) bool {
			return m.RoomID == roomID
		}))
	})
	if err != nil {
		f.presence.Leave(roomID)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			f.presence.Leave(roomID)
		})
	}, nil
}

// Send appends the composer's text as a message from sender. It is a no-op
// when the sender is absent or the text trims to empty. The composer is
// cleared before the write resolves and restored verbatim on failure. The
// room-summary update afterwards is independent and best-effort: if it fails
// the message stays durably stored with a stale summary, accepted as is.
func (f *Feed) Send(ctx context.Context, roomID string, sender *domain.Principal, composer *Composer) error {
	if sender == nil {
		return nil
	}
	original := composer.Text()
	text := strings.TrimSpace(original)
	if text == "" {
		return nil
	}

	composer.take()

	msg := &domain.Message{
		Text:        text,
		SenderID:    sender.ID,
		SenderName:  sender.DisplayName,
		SenderPhoto: sender.PhotoURL,
		RoomID:      roomID,
		Reactions:   map[string][]string{},
	}
	if err := f.messages.AppendMessage(ctx, msg); err != nil {
		composer.restore(original)
		return &domain.WriteError{Op: "send message", Err: err}
	}

	summary := domain.RoomSummary{
		Text:       text,
		SenderName: sender.DisplayName,
		SentAt:     msg.SentAt,
	}
	if err := f.rooms.SetLastMessage(ctx, roomID, summary); err != nil {
		f.log.Warn().Err(err).Str("room_id", roomID).Msg("room summary update dropped")
	}
	return nil
}

// ToggleReaction adds or removes sender's reaction on a message. Failures
// surface so the UI can reflect them.
func (f *Feed) ToggleReaction(ctx context.Context, messageID, emoji string, sender *domain.Principal) error {
	if sender == nil || emoji == "" {
		return nil
	}
	if err := f.messages.ToggleReaction(ctx, messageID, emoji, sender.ID); err != nil {
		return &domain.WriteError{Op: "toggle reaction", Err: err}
	}
	return nil
}
