// Package session tracks the signed-in principal and its denormalized
// profile document. The auth-state observer is the single source of truth
// for the current principal; local state is never anything but a reflection
// of the last observed transition.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"chatroom/internal/domain"
)

var validate = validator.New()

// Store wraps the managed identity provider.
type Store struct {
	identity domain.Identity
	profiles domain.ProfileStore
	log      zerolog.Logger
	clock    func() time.Time

	mu      sync.RWMutex
	current *domain.Principal
	profile *domain.Principal
	loading bool

	loadOnce sync.Once
	detach   func()
}

// New attaches the auth-state observer immediately. Loading stays true until
// the first observation has resolved; protected content must not render
// before that.
func New(identity domain.Identity, profiles domain.ProfileStore, log zerolog.Logger) *Store {
	s := &Store{
		identity: identity,
		profiles: profiles,
		log:      log,
		clock:    time.Now,
		loading:  true,
	}
	s.detach = identity.AuthState(s.observe)
	return s
}

// Register creates the external identity and writes the profile document with
// the principal marked online. All failures surface as *domain.AuthError.
func (s *Store) Register(ctx context.Context, email, password, displayName string) (*domain.Principal, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)

	if err := validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewAuthError("a valid email is required", domain.ErrInvalidInput)
	}
	if err := validate.Var(password, "required,min=8"); err != nil {
		return nil, domain.NewAuthError("password must be at least 8 characters", domain.ErrInvalidInput)
	}
	if displayName == "" {
		return nil, domain.NewAuthError("display name is required", domain.ErrInvalidInput)
	}

	principal, err := s.identity.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		if _, ok := err.(*domain.AuthError); ok {
			return nil, err
		}
		return nil, domain.NewAuthError("create account", err)
	}

	now := s.clock().UTC()
	online := true
	patch := domain.ProfilePatch{
		Email:       &principal.Email,
		DisplayName: &principal.DisplayName,
		IsOnline:    &online,
		LastSeenAt:  &now,
	}
	if err := s.profiles.UpsertProfile(ctx, principal.ID, patch); err != nil {
		return nil, domain.NewAuthError("write profile", err)
	}
	return principal, nil
}

// Login authenticates. It does not write the profile document itself; the
// auth-state observer syncs it.
func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.identity.SignIn(ctx, strings.TrimSpace(email), password)
}

// Logout marks the profile offline best-effort, then clears the session. A
// failed profile write never blocks sign-out.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current != nil {
		if err := s.profiles.UpsertProfile(ctx, current.ID, domain.PresencePatch(false, s.clock().UTC())); err != nil {
			s.log.Warn().Err(err).Str("principal_id", current.ID).Msg("offline profile write failed during logout")
		}
	}
	return s.identity.SignOut(ctx)
}

// SetVisible is the visibility heartbeat: while signed in, every tab
// visibility change writes the online flag and last-seen time. Failures are
// swallowed.
func (s *Store) SetVisible(ctx context.Context, visible bool) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current == nil {
		return
	}
	if err := s.profiles.UpsertProfile(ctx, current.ID, domain.PresencePatch(visible, s.clock().UTC())); err != nil {
		s.log.Warn().Err(err).Str("principal_id", current.ID).Bool("visible", visible).Msg("visibility heartbeat dropped")
	}
}

// Current returns the signed-in principal, or nil.
func (s *Store) Current() *domain.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Profile returns the signed-in principal's profile document, or nil.
func (s *Store) Profile() *domain.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Loading reports whether the first auth-state observation is still pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Close detaches the auth-state observer.
func (s *Store) Close() {
	if s.detach != nil {
		s.detach()
	}
}

func (s *Store) observe(p *domain.Principal) {
	defer s.loadOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	})

	if p == nil {
		s.mu.Lock()
		s.current = nil
		s.profile = nil
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	ctx := context.Background()
	if err := s.profiles.UpsertProfile(ctx, p.ID, domain.PresencePatch(true, s.clock().UTC())); err != nil {
		s.log.Warn().Err(err).Str("principal_id", p.ID).Msg("online profile sync failed")
	}

	profile, err := s.profiles.GetProfile(ctx, p.ID)
	if err != nil || profile == nil {
		profile = p
	}
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
}
