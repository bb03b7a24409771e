// Package presence tracks how many feed subscriptions are currently open for
// a room, as a best-effort counter at the store.
package presence

import (
	"context"

	"github.com/rs/zerolog"

	"chatroom/internal/domain"
)

// Counter applies fire-and-forget participant deltas. Failures are logged,
// never retried and never surfaced.
type Counter struct {
	rooms domain.RoomStore
	log   zerolog.Logger
}

func NewCounter(rooms domain.RoomStore, log zerolog.Logger) *Counter {
	return &Counter{rooms: rooms, log: log}
}

// Enter increments the room's participant count.
func (c *Counter) Enter(roomID string) {
	c.adjust(roomID, 1)
}

// Leave decrements the room's participant count.
func (c *Counter) Leave(roomID string) {
	c.adjust(roomID, -1)
}

func (c *Counter) adjust(roomID string, delta int) {
	if err := c.rooms.AdjustParticipants(context.Background(), roomID, delta); err != nil {
		c.log.Warn().Err(err).Str("room_id", roomID).Int("delta", delta).Msg("participant count adjustment dropped")
	}
}
