package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"chatroom/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

var _ domain.ProfileStore = (*ProfileRepo)(nil)

// UpsertProfile merges the patch into the stored profile document, creating
// the document if it does not exist yet.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, id string, patch domain.ProfilePatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert profile: %w", err)
	}
	defer tx.Rollback()

	current, err := scanProfile(tx.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, is_online, last_seen_at FROM profiles WHERE id = ?`, id))
	if err != nil {
		return err
	}
	if current == nil {
		current = &domain.Principal{ID: id}
	}

	if patch.Email != nil {
		current.Email = *patch.Email
	}
	if patch.DisplayName != nil {
		current.DisplayName = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		current.PhotoURL = patch.PhotoURL
	}
	if patch.IsOnline != nil {
		current.IsOnline = *patch.IsOnline
	}
	if patch.LastSeenAt != nil {
		current.LastSeenAt = *patch.LastSeenAt
	}

	query := `
		INSERT INTO profiles (id, email, display_name, photo_url, is_online, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			is_online = excluded.is_online,
			last_seen_at = excluded.last_seen_at
	`
	if _, err := tx.ExecContext(ctx, query,
		current.ID,
		current.Email,
		current.DisplayName,
		current.PhotoURL,
		current.IsOnline,
		toMillis(current.LastSeenAt),
	); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return tx.Commit()
}

func (r *ProfileRepo) GetProfile(ctx context.Context, id string) (*domain.Principal, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, is_online, last_seen_at FROM profiles WHERE id = ?`, id))
}

func (r *ProfileRepo) ListOnlineProfiles(ctx context.Context) ([]domain.Principal, error) {
	query := `
		SELECT id, email, display_name, photo_url, is_online, last_seen_at
		FROM profiles
		WHERE is_online = 1
		ORDER BY last_seen_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list online profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Principal
	for rows.Next() {
		p := domain.Principal{}
		var lastSeen int64
		if err := rows.Scan(&p.ID, &p.Email, &p.DisplayName, &p.PhotoURL, &p.IsOnline, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.LastSeenAt = fromMillis(lastSeen)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type row interface {
	Scan(dest ...any) error
}

func scanProfile(r row) (*domain.Principal, error) {
	p := &domain.Principal{}
	var lastSeen int64
	err := r.Scan(&p.ID, &p.Email, &p.DisplayName, &p.PhotoURL, &p.IsOnline, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.LastSeenAt = fromMillis(lastSeen)
	return p, nil
}
