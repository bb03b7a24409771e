// Package auth implements the managed identity provider: account creation,
// password sign-in, sign-out, and a process-wide auth-state stream.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatroom/internal/domain"
	"chatroom/internal/live"
	"chatroom/internal/security"
)

// Service holds the single signed-in principal and notifies observers on
// every transition. A new observer is replayed the current state on attach,
// so the initial load always produces exactly one event.
type Service struct {
	accounts domain.AccountStore
	profiles domain.ProfileStore
	hash     *security.PasswordHasher
	log      zerolog.Logger

	state *live.Broker[*domain.Principal]

	mu      sync.Mutex
	current *domain.Principal
}

func NewService(accounts domain.AccountStore, profiles domain.ProfileStore, hash *security.PasswordHasher, log zerolog.Logger) *Service {
	s := &Service{
		accounts: accounts,
		profiles: profiles,
		hash:     hash,
		log:      log,
		state:    live.NewBroker[*domain.Principal](),
	}
	// Seed the stream so observers attached before any sign-in still get the
	// initial signed-out event.
	s.state.Publish(nil)
	return s
}

var _ domain.Identity = (*Service)(nil)

// CreateAccount registers a new account and signs the new principal in, the
// way the managed provider treats account creation as establishing a session.
func (s *Service) CreateAccount(ctx context.Context, email, password, displayName string) (*domain.Principal, error) {
	principal, err := s.RegisterAccount(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	s.setCurrent(principal)
	return principal, nil
}

// RegisterAccount creates the account record without touching the signed-in
// state or the auth-state stream. Used by the hosted surface, where sessions
// are per-request tokens and one request must not flip the process-wide
// principal.
func (s *Service) RegisterAccount(ctx context.Context, email, password, displayName string) (*domain.Principal, error) {
	existing, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewAuthError("check email", err)
	}
	if existing != nil {
		return nil, domain.NewAuthError("email already registered", domain.ErrConflict)
	}

	hashed, err := s.hash.Hash(password)
	if err != nil {
		return nil, domain.NewAuthError("hash password", err)
	}

	account := &domain.Account{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashed,
		DisplayName:    displayName,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, domain.NewAuthError("create account", err)
	}

	return &domain.Principal{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		IsOnline:    true,
		LastSeenAt:  time.Now().UTC(),
	}, nil
}

// SignIn authenticates by email and password and publishes the transition.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	principal, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	s.setCurrent(principal)
	return nil
}

// Authenticate verifies credentials without mutating the signed-in state.
// Used by the hosted surface, where sessions are per-request tokens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewAuthError("get account", err)
	}
	if account == nil {
		return nil, domain.NewAuthError("incorrect email or password", domain.ErrUnauthorized)
	}
	if err := s.hash.Verify(password, account.HashedPassword); err != nil {
		return nil, domain.NewAuthError("incorrect email or password", domain.ErrUnauthorized)
	}

	principal := &domain.Principal{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
	}
	// Prefer the profile document when one exists; it carries photo and
	// presence fields the account record does not.
	if profile, err := s.profiles.GetProfile(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("principal_id", account.ID).Msg("profile lookup failed during sign-in")
	} else if profile != nil {
		principal.DisplayName = profile.DisplayName
		principal.PhotoURL = profile.PhotoURL
	}
	return principal, nil
}

// SignOut clears the signed-in principal and publishes the transition.
func (s *Service) SignOut(ctx context.Context) error {
	s.setCurrent(nil)
	return nil
}

// AuthState attaches an observer to the auth-state stream.
func (s *Service) AuthState(observer func(*domain.Principal)) (cancel func()) {
	return s.state.Subscribe(observer)
}

// Current returns the signed-in principal, or nil.
func (s *Service) Current() *domain.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// LookupByID resolves a principal from its profile document.
func (s *Service) LookupByID(ctx context.Context, id string) (*domain.Principal, error) {
	profile, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrNotFound
	}
	return profile, nil
}

func (s *Service) setCurrent(p *domain.Principal) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	s.state.Publish(p)
}
