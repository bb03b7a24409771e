package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/domain"
	"chatroom/internal/store/sqlite"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func TestUpsertProfileCreatesThenMerges(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewProfileRepo(db)
	ctx := context.Background()

	seen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertProfile(ctx, "alice", domain.ProfilePatch{
		Email:       strPtr("alice@example.com"),
		DisplayName: strPtr("Alice"),
		IsOnline:    boolPtr(true),
		LastSeenAt:  timePtr(seen),
	}))

	got, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.True(t, got.IsOnline)
	assert.Equal(t, seen, got.LastSeenAt)

	// A partial patch leaves every other field untouched.
	require.NoError(t, repo.UpsertProfile(ctx, "alice", domain.ProfilePatch{
		IsOnline: boolPtr(false),
	}))

	got, err = repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, got.IsOnline)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestGetProfileMissing(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewProfileRepo(db)

	got, err := repo.GetProfile(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListOnlineProfiles(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewProfileRepo(db)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertProfile(ctx, "alice", domain.ProfilePatch{
		DisplayName: strPtr("Alice"),
		IsOnline:    boolPtr(true),
		LastSeenAt:  timePtr(base),
	}))
	require.NoError(t, repo.UpsertProfile(ctx, "bob", domain.ProfilePatch{
		DisplayName: strPtr("Bob"),
		IsOnline:    boolPtr(true),
		LastSeenAt:  timePtr(base.Add(time.Minute)),
	}))
	require.NoError(t, repo.UpsertProfile(ctx, "carol", domain.ProfilePatch{
		DisplayName: strPtr("Carol"),
		IsOnline:    boolPtr(false),
		LastSeenAt:  timePtr(base.Add(2 * time.Minute)),
	}))

	online, err := repo.ListOnlineProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.Equal(t, "bob", online[0].ID, "most recently seen first")
	assert.Equal(t, "alice", online[1].ID)
}

func TestUpsertProfilePhotoURL(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewProfileRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertProfile(ctx, "alice", domain.ProfilePatch{
		DisplayName: strPtr("Alice"),
		PhotoURL:    strPtr("https://example.com/alice.png"),
	}))

	got, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.PhotoURL)
	assert.Equal(t, "https://example.com/alice.png", *got.PhotoURL)
}
