// Package directory exposes the live room list and room creation.
package directory

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"chatroom/internal/domain"
)

type Directory struct {
	rooms domain.RoomStore
	log   zerolog.Logger
}

func New(rooms domain.RoomStore, log zerolog.Logger) *Directory {
	return &Directory{rooms: rooms, log: log}
}

// SubscribeRooms opens a live subscription over all rooms, newest first. The
// full ordered list is re-delivered on every change. Callers must invoke the
// returned cancel on teardown.
func (d *Directory) SubscribeRooms(fn func([]domain.Room)) (cancel func(), err error) {
	return d.rooms.WatchRooms(fn)
}

// CreateRoom writes a new public room with a zero participant count. The name
// must be non-empty after trimming. Store failures surface as *WriteError so
// the caller can keep the user's input for retry.
func (d *Directory) CreateRoom(ctx context.Context, name, description, createdBy string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidInput
	}

	room := &domain.Room{
		Name:             name,
		Description:      strings.TrimSpace(description),
		CreatedBy:        createdBy,
		ParticipantCount: 0,
		IsPublic:         true,
	}
	if err := d.rooms.CreateRoom(ctx, room); err != nil {
		return &domain.WriteError{Op: "create room", Err: err}
	}
	return nil
}
