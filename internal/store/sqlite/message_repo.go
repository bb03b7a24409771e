package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatroom/internal/domain"
	"chatroom/internal/live"
)

type MessageRepo struct {
	db       *sql.DB
	watchers *live.Broker[[]domain.Message]
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{
		db:       db,
		watchers: live.NewBroker[[]domain.Message](),
	}
}

var _ domain.MessageStore = (*MessageRepo)(nil)

// AppendMessage stores m with a server-assigned timestamp and empty reactions.
func (r *MessageRepo) AppendMessage(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.SentAt = time.Now().UTC()
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	reactions, err := json.Marshal(m.Reactions)
	if err != nil {
		return fmt.Errorf("marshal reactions: %w", err)
	}

	query := `
		INSERT INTO messages (id, room_id, text, sender_id, sender_name, sender_photo, sent_at, reactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.RoomID,
		m.Text,
		m.SenderID,
		m.SenderName,
		m.SenderPhoto,
		toMillis(m.SentAt),
		string(reactions),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return r.publish(ctx)
}

// ListMessages returns messages for one room ordered by send time ascending.
// A limit <= 0 means no limit.
func (r *MessageRepo) ListMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	all, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}
	msgs := lo.Filter(all, func(m domain.Message, _ int) bool { return m.RoomID == roomID })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ToggleReaction adds principalID to the emoji's reaction set, or removes it
// if already present. The set stays sorted and de-duplicated.
func (r *MessageRepo) ToggleReaction(ctx context.Context, messageID, emoji, principalID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin toggle reaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT reactions FROM messages WHERE id = ?`, messageID).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read reactions: %w", err)
	}

	reactions := map[string][]string{}
	if err := json.Unmarshal([]byte(raw), &reactions); err != nil {
		return fmt.Errorf("unmarshal reactions: %w", err)
	}

	ids := reactions[emoji]
	if lo.Contains(ids, principalID) {
		ids = lo.Without(ids, principalID)
	} else {
		ids = lo.Uniq(append(ids, principalID))
		sort.Strings(ids)
	}
	if len(ids) == 0 {
		delete(reactions, emoji)
	} else {
		reactions[emoji] = ids
	}

	updated, err := json.Marshal(reactions)
	if err != nil {
		return fmt.Errorf("marshal reactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE messages SET reactions = ? WHERE id = ?`, string(updated), messageID); err != nil {
		return fmt.Errorf("update reactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit toggle reaction: %w", err)
	}
	return r.publish(ctx)
}

// WatchMessages attaches fn and delivers the current collection to it alone;
// existing watchers are not re-notified.
func (r *MessageRepo) WatchMessages(fn func([]domain.Message)) (func(), error) {
	return r.watchers.SubscribeCurrent(fn, func() ([]domain.Message, error) {
		return r.listAll(context.Background())
	})
}

// listAll returns the global collection ordered by send time ascending, ties
// broken by insertion order.
func (r *MessageRepo) listAll(ctx context.Context) ([]domain.Message, error) {
	query := `
		SELECT id, room_id, text, sender_id, sender_name, sender_photo, sent_at, reactions
		FROM messages
		ORDER BY sent_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var (
			m      domain.Message
			sentAt int64
			raw    string
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Text, &m.SenderID, &m.SenderName, &m.SenderPhoto, &sentAt, &raw); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.SentAt = fromMillis(sentAt)
		m.Reactions = map[string][]string{}
		if err := json.Unmarshal([]byte(raw), &m.Reactions); err != nil {
			return nil, fmt.Errorf("unmarshal reactions: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) publish(ctx context.Context) error {
	msgs, err := r.listAll(ctx)
	if err != nil {
		return fmt.Errorf("publish messages: %w", err)
	}
	r.watchers.Publish(msgs)
	return nil
}
