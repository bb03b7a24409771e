package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/live"
)

type RoomRepo struct {
	db       *sql.DB
	watchers *live.Broker[[]domain.Room]
}

func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{
		db:       db,
		watchers: live.NewBroker[[]domain.Room](),
	}
}

var _ domain.RoomStore = (*RoomRepo)(nil)

func (r *RoomRepo) CreateRoom(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	room.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO rooms (id, name, description, created_by, created_at, participant_count, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Description,
		room.CreatedBy,
		toMillis(room.CreatedAt),
		room.ParticipantCount,
		room.IsPublic,
	); err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return r.publish(ctx)
}

func (r *RoomRepo) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	query := roomSelect + ` WHERE id = ?`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	room, err := scanRoom(rows)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns all rooms ordered by creation time descending, newest
// first. Ties break by insertion order.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	query := roomSelect + ` ORDER BY created_at DESC, rowid DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepo) SetLastMessage(ctx context.Context, roomID string, summary domain.RoomSummary) error {
	query := `
		UPDATE rooms
		SET last_message_text = ?, last_message_sender = ?, last_message_at = ?
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, summary.Text, summary.SenderName, toMillis(summary.SentAt), roomID); err != nil {
		return fmt.Errorf("set last message: %w", err)
	}
	return r.publish(ctx)
}

// AdjustParticipants applies an atomic delta to the room's participant count,
// clamped at zero. Concurrent deltas commute at the database.
func (r *RoomRepo) AdjustParticipants(ctx context.Context, roomID string, delta int) error {
	query := `UPDATE rooms SET participant_count = MAX(participant_count + ?, 0) WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, delta, roomID); err != nil {
		return fmt.Errorf("adjust participants: %w", err)
	}
	return r.publish(ctx)
}

// WatchRooms attaches fn and delivers the current room list to it alone;
// existing watchers are not re-notified. Every subsequent write re-delivers
// the full ordered list to all watchers.
func (r *RoomRepo) WatchRooms(fn func([]domain.Room)) (func(), error) {
	return r.watchers.SubscribeCurrent(fn, func() ([]domain.Room, error) {
		return r.ListRooms(context.Background())
	})
}

func (r *RoomRepo) publish(ctx context.Context) error {
	rooms, err := r.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("publish rooms: %w", err)
	}
	r.watchers.Publish(rooms)
	return nil
}

const roomSelect = `
	SELECT id, name, description, created_by, created_at, participant_count, is_public,
	       last_message_text, last_message_sender, last_message_at
	FROM rooms`

func scanRoom(rows *sql.Rows) (domain.Room, error) {
	var (
		room      domain.Room
		createdAt int64
		sumText   sql.NullString
		sumSender sql.NullString
		sumSentAt sql.NullInt64
	)
	if err := rows.Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.CreatedBy,
		&createdAt,
		&room.ParticipantCount,
		&room.IsPublic,
		&sumText,
		&sumSender,
		&sumSentAt,
	); err != nil {
		return domain.Room{}, fmt.Errorf("scan room: %w", err)
	}
	room.CreatedAt = fromMillis(createdAt)
	if sumText.Valid {
		room.LastMessage = &domain.RoomSummary{
			Text:       sumText.String,
			SenderName: sumSender.String,
			SentAt:     fromMillis(sumSentAt.Int64),
		}
	}
	return room, nil
}
