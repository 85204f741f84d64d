// Package session holds the authentication state derived from the token
// store and the API client.
//
// A Session is an explicit object handed to whoever needs it, not an ambient
// singleton. Lifecycle: New (initializing) -> Start (anonymous or
// authenticated) -> Logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/logger"
	"github.com/avoronin/portalctl/internal/models"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

type State int

const (
	// StateInitializing means Start has not resolved yet. Distinct from
	// anonymous: guards must not fire while the session is still loading.
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Client operations the session depends on
type apiClient interface {
	Login(ctx context.Context, username string, password string) error
	Register(ctx context.Context, email string, password string, role models.Role) (models.User, error)
	Refresh(ctx context.Context) error
	CurrentUser(ctx context.Context) (models.User, error)
	ResetPassword(ctx context.Context, password string) error
}

type Config struct {
	// API client to authenticate through. Required
	Client apiClient

	// Store shared with the client. Defaults to tokenstore.Nop
	Store tokenstore.Store

	// OnLogout runs after the session is destroyed, on explicit logout
	// and on forced logout alike. The navigation policy of the caller
	// lives here, the session itself never decides where to go next.
	OnLogout func()

	Logger logger.Logger
}

type Session struct {
	client   apiClient
	store    tokenstore.Store
	onLogout func()
	logger   logger.Logger

	mu    sync.Mutex
	state State
	user  *models.User
}

func New(cfg Config) (*Session, error) {
	if cfg.Client == nil {
		return nil, errors.New("client must not be nil")
	}
	if cfg.Store == nil {
		cfg.Store = tokenstore.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	return &Session{
		client:   cfg.Client,
		store:    cfg.Store,
		onLogout: cfg.OnLogout,
		logger:   cfg.Logger,
		state:    StateInitializing,
	}, nil
}

// Start resolves the initial state from the store. With a valid stored pair
// it fetches the current user; any fetch failure clears the store and leaves
// the session anonymous rather than failing Start.
func (s *Session) Start(ctx context.Context) {
	if !s.store.Valid(time.Now()) {
		s.setAnonymous(false)
		return
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("Failed to restore session", "error", err)
		if err := s.store.Clear(); err != nil {
			s.logger.Warn("Failed to clear token store", "error", err)
		}
		s.setAnonymous(false)
		return
	}

	s.setUser(user)
}

// Login authenticates and loads the current user. The session becomes
// authenticated only when both steps succeed.
func (s *Session) Login(ctx context.Context, username string, password string) error {
	if err := s.client.Login(ctx, username, password); err != nil {
		s.observe(err)
		return fmt.Errorf("login failed: %w", err)
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		// Tokens are stored but the user is unknown: not authenticated.
		// The stored pair stays for the next Start to retry.
		s.observe(err)
		s.setAnonymous(false)
		return fmt.Errorf("login succeeded but user fetch failed: %w", err)
	}

	s.setUser(user)
	return nil
}

// Register creates the account and chains into Login with the same
// credentials. Registration alone does not authenticate.
func (s *Session) Register(ctx context.Context, email string, password string, role models.Role) error {
	if _, err := s.client.Register(ctx, email, password, role); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	return s.Login(ctx, email, password)
}

// Logout destroys the session: clears the store, drops the in-memory user
// and fires the OnLogout hook. Safe to call repeatedly.
func (s *Session) Logout() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("Failed to clear token store", "error", err)
	}
	s.setAnonymous(true)
}

// Refresh exchanges the refresh token for a new pair. Explicit only, the
// session never refreshes behind the caller's back.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.client.Refresh(ctx); err != nil {
		s.observe(err)
		return err
	}
	return nil
}

// ResetPassword updates the password of the authenticated user.
func (s *Session) ResetPassword(ctx context.Context, password string) error {
	if err := s.client.ResetPassword(ctx, password); err != nil {
		s.observe(err)
		return err
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether Start has not resolved yet.
func (s *Session) Loading() bool {
	return s.State() == StateInitializing
}

// CurrentUser returns the loaded user, if any.
func (s *Session) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Authenticated is derived, never set directly: the store must hold a valid
// pair and a user must be loaded. A valid pair with a not-yet-fetched user
// still reports false.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == StateAuthenticated && s.user != nil && s.store.Valid(time.Now())
}

// observe reacts to errors from the client: any observed 401 destroys the
// session. The store itself was already cleared by the client.
func (s *Session) observe(err error) {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		s.logger.Info("Session terminated by 401 response")
		s.setAnonymous(true)
	}
}

func (s *Session) setUser(user models.User) {
	s.mu.Lock()
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()
}

func (s *Session) setAnonymous(fireHook bool) {
	s.mu.Lock()
	wasAuthenticated := s.user != nil
	s.user = nil
	s.state = StateAnonymous
	s.mu.Unlock()

	if fireHook && wasAuthenticated && s.onLogout != nil {
		s.onLogout()
	}
}
