package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/domain"
	"chatroom/internal/live"
	"chatroom/internal/session"
)

// fakeIdentity drives the auth-state stream by hand.
type fakeIdentity struct {
	state      *live.Broker[*domain.Principal]
	createErr  error
	signInErr  error
	signedOut  int
	created    []string
	signedIn   []string
	nextOnAuth *domain.Principal
}

func newFakeIdentity() *fakeIdentity {
	f := &fakeIdentity{state: live.NewBroker[*domain.Principal]()}
	f.state.Publish(nil)
	return f
}

func (f *fakeIdentity) CreateAccount(ctx context.Context, email, password, displayName string) (*domain.Principal, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, email)
	p := &domain.Principal{ID: "p-" + email, Email: email, DisplayName: displayName}
	f.state.Publish(p)
	return p, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	f.signedIn = append(f.signedIn, email)
	p := f.nextOnAuth
	if p == nil {
		p = &domain.Principal{ID: "p-" + email, Email: email}
	}
	f.state.Publish(p)
	return nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signedOut++
	f.state.Publish(nil)
	return nil
}

func (f *fakeIdentity) AuthState(observer func(*domain.Principal)) (cancel func()) {
	return f.state.Subscribe(observer)
}

// fakeProfiles records upserts keyed by principal id.
type fakeProfiles struct {
	patches   map[string][]domain.ProfilePatch
	upsertErr error
	profiles  map[string]*domain.Principal
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		patches:  map[string][]domain.ProfilePatch{},
		profiles: map[string]*domain.Principal{},
	}
}

func (f *fakeProfiles) UpsertProfile(ctx context.Context, id string, patch domain.ProfilePatch) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.patches[id] = append(f.patches[id], patch)
	return nil
}

func (f *fakeProfiles) GetProfile(ctx context.Context, id string) (*domain.Principal, error) {
	return f.profiles[id], nil
}

func (f *fakeProfiles) ListOnlineProfiles(ctx context.Context) ([]domain.Principal, error) {
	return nil, nil
}

func TestLoadingResolvesAfterFirstObservation(t *testing.T) {
	identity := newFakeIdentity()
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	// The seeded signed-out state replays on attach, so the one-shot loading
	// latch has already resolved, exactly once.
	assert.False(t, store.Loading())
	assert.Nil(t, store.Current())

	// Later transitions must not flip it back.
	identity.state.Publish(&domain.Principal{ID: "alice"})
	assert.False(t, store.Loading())
}

func TestObserverSyncsProfileOnSignIn(t *testing.T) {
	identity := newFakeIdentity()
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	require.NoError(t, store.Login(context.Background(), "alice@example.com", "password123"))

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, "p-alice@example.com", current.ID)

	patches := profiles.patches[current.ID]
	require.NotEmpty(t, patches, "observer upserts the profile on sign-in")
	last := patches[len(patches)-1]
	require.NotNil(t, last.IsOnline)
	assert.True(t, *last.IsOnline)
	require.NotNil(t, last.LastSeenAt)
}

func TestLoginItselfWritesNoProfile(t *testing.T) {
	identity := newFakeIdentity()
	identity.signInErr = errors.New("stub: no state transition")
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	// With the transition suppressed, login performs no profile write of its
	// own: the observer is the only writer.
	_ = store.Login(context.Background(), "alice@example.com", "password123")
	assert.Empty(t, profiles.patches)
}

func TestRegisterValidation(t *testing.T) {
	identity := newFakeIdentity()
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	cases := []struct {
		name        string
		email       string
		password    string
		displayName string
	}{
		{"BadEmail", "not-an-email", "password123", "Alice"},
		{"WeakPassword", "alice@example.com", "short", "Alice"},
		{"MissingDisplayName", "alice@example.com", "password123", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Register(context.Background(), tc.email, tc.password, tc.displayName)
			var authErr *domain.AuthError
			require.ErrorAs(t, err, &authErr)
		})
	}
	assert.Empty(t, identity.created, "invalid input never reaches the identity provider")
}

func TestRegisterWritesOnlineProfile(t *testing.T) {
	identity := newFakeIdentity()
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	principal, err := store.Register(context.Background(), "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	patches := profiles.patches[principal.ID]
	require.NotEmpty(t, patches)
	last := patches[len(patches)-1]
	require.NotNil(t, last.IsOnline)
	assert.True(t, *last.IsOnline)
	require.NotNil(t, last.DisplayName)
	assert.Equal(t, "Alice", *last.DisplayName)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	identity := newFakeIdentity()
	identity.createErr = domain.NewAuthError("email already registered", domain.ErrConflict)
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	_, err := store.Register(context.Background(), "alice@example.com", "password123", "Alice")

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogoutSurvivesProfileWriteFailure(t *testing.T) {
	identity := newFakeIdentity()
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	require.NoError(t, store.Login(context.Background(), "alice@example.com", "password123"))
	profiles.upsertErr = errors.New("store down")

	err := store.Logout(context.Background())

	assert.NoError(t, err, "sign-out proceeds despite the failed offline write")
	assert.Equal(t, 1, identity.signedOut)
	assert.Nil(t, store.Current())
}

func TestVisibilityHeartbeat(t *testing.T) {
	identity := newFakeIdentity()
	profiles := newFakeProfiles()

	store := session.New(identity, profiles, zerolog.Nop())
	defer store.Close()

	// Signed out: heartbeat is a no-op.
	store.SetVisible(context.Background(), true)
	assert.Empty(t, profiles.patches)

	require.NoError(t, store.Login(context.Background(), "alice@example.com", "password123"))
	id := store.Current().ID
	before := len(profiles.patches[id])

	store.SetVisible(context.Background(), false)
	patches := profiles.patches[id]
	require.Len(t, patches, before+1)
	last := patches[len(patches)-1]
	require.NotNil(t, last.IsOnline)
	assert.False(t, *last.IsOnline)

	// Failures are swallowed.
	profiles.upsertErr = errors.New("store down")
	store.SetVisible(context.Background(), true)
}
