package domain

import "time"

// Principal is an authenticated user identity together with its denormalized
// profile document.
type Principal struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	PhotoURL    *string   `db:"photo_url" json:"photo_url,omitempty"`
	IsOnline    bool      `db:"is_online" json:"is_online"`
	LastSeenAt  time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// Account is the identity-provider record behind a Principal. The hashed
// password never leaves the identity layer.
type Account struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// RoomSummary is the denormalized "last message" preview stored on a room.
type RoomSummary struct {
	Text       string    `json:"text"`
	SenderName string    `json:"sender_name"`
	SentAt     time.Time `json:"sent_at"`
}

// Room represents a named channel containing an ordered sequence of messages.
type Room struct {
	ID               string       `db:"id" json:"id"`
	Name             string       `db:"name" json:"name"`
	Description      string       `db:"description" json:"description"`
	CreatedBy        string       `db:"created_by" json:"created_by"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	ParticipantCount int          `db:"participant_count" json:"participant_count"`
	IsPublic         bool         `db:"is_public" json:"is_public"`
	LastMessage      *RoomSummary `json:"last_message,omitempty"`
}

// Message is a single immutable chat message. Reactions map an emoji to the
// set of principal ids that added it.
type Message struct {
	ID          string              `db:"id" json:"id"`
	Text        string              `db:"text" json:"text"`
	SenderID    string              `db:"sender_id" json:"sender_id"`
	SenderName  string              `db:"sender_name" json:"sender_name"`
	SenderPhoto *string             `db:"sender_photo" json:"sender_photo,omitempty"`
	RoomID      string              `db:"room_id" json:"room_id"`
	SentAt      time.Time           `db:"sent_at" json:"sent_at"`
	Reactions   map[string][]string `json:"reactions"`
}
