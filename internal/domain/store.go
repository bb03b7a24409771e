package domain

import (
	"context"
	"time"
)

// Identity is the managed authentication provider. AuthState attaches a
// process-wide observer that fires on every auth transition, including once
// immediately with the current state, and returns a detach func.
type Identity interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (*Principal, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	AuthState(observer func(*Principal)) (cancel func())
}

// AccountStore defines persistence for identity accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}

// ProfilePatch is a partial profile document merged into the stored one.
// Nil fields are left untouched.
type ProfilePatch struct {
	Email       *string
	DisplayName *string
	PhotoURL    *string
	IsOnline    *bool
	LastSeenAt  *time.Time
}

// PresencePatch builds the patch written by online/offline transitions.
func PresencePatch(online bool, at time.Time) ProfilePatch {
	return ProfilePatch{IsOnline: &online, LastSeenAt: &at}
}

// ProfileStore defines persistence for denormalized profile documents keyed
// by principal id.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, id string, patch ProfilePatch) error
	GetProfile(ctx context.Context, id string) (*Principal, error)
	ListOnlineProfiles(ctx context.Context) ([]Principal, error)
}

// RoomStore defines persistence and live queries for rooms. WatchRooms
// delivers the full list ordered by creation time descending on every change,
// never a diff; the returned cancel stops delivery immediately.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SetLastMessage(ctx context.Context, roomID string, summary RoomSummary) error
	AdjustParticipants(ctx context.Context, roomID string, delta int) error
	WatchRooms(fn func([]Room)) (cancel func(), err error)
}

// MessageStore defines persistence and live queries for the global message
// collection. WatchMessages delivers the full collection ordered by send time
// ascending on every change; callers filter by room on their side.
type MessageStore interface {
	AppendMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, roomID string, limit int) ([]Message, error)
	ToggleReaction(ctx context.Context, messageID, emoji, principalID string) error
	WatchMessages(fn func([]Message)) (cancel func(), err error)
}
