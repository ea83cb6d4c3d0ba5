// ABOUTME: Session manager: bootstrap, login, register, onboarding and logout
// ABOUTME: Sole writer of the persisted credential; state read through Snapshot

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/credential"
	"github.com/2389/legisbot/internal/route"
)

// ErrNotAuthenticated is returned by operations that need a current user.
var ErrNotAuthenticated = errors.New("not authenticated")

// Backend is the subset of the backend the session needs.
type Backend interface {
	Me(ctx context.Context) (*api.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, reg api.Registration) (*api.AuthResult, error)
	CompleteOnboarding(ctx context.Context, profile api.Profile) (*api.User, error)
}

// State is a point-in-time copy of the session.
type State struct {
	CurrentUser *api.User
	Loading     bool
	HasToken    bool
}

// Manager holds the current user and drives the credential slot.
type Manager struct {
	store   credential.Store
	backend Backend
	nav     route.Navigator
	logger  *zap.Logger

	bootOnce sync.Once

	mu       sync.RWMutex
	user     *api.User
	loading  bool
	hasToken bool
}

// New creates a Manager in the loading state. nav may be nil.
func New(store credential.Store, backend Backend, nav route.Navigator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   store,
		backend: backend,
		nav:     nav,
		logger:  logger.Named("session"),
		loading: true,
	}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		CurrentUser: copyUser(m.user),
		Loading:     m.loading,
		HasToken:    m.hasToken,
	}
}

// CurrentUser returns a copy of the current user, or nil.
func (m *Manager) CurrentUser() *api.User {
	return m.Snapshot().CurrentUser
}

// SetNavigator replaces the navigator used by Logout.
func (m *Manager) SetNavigator(nav route.Navigator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nav = nav
}

// Bootstrap resolves the persisted credential. Only the first call does
// anything; it never fails and always leaves Loading false.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootOnce.Do(func() {
		m.bootstrap(ctx)
	})
}

func (m *Manager) bootstrap(ctx context.Context) {
	defer m.finishLoading()

	token, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("reading persisted credential", zap.Error(err))
		return
	}
	if token == "" {
		m.logger.Debug("no persisted credential")
		return
	}

	m.setHasToken(true)
	user, err := m.backend.Me(ctx)
	if err != nil {
		m.logger.Info("persisted credential rejected, clearing", zap.Error(err))
		m.clearToken(ctx)
		m.setUser(nil)
		return
	}

	m.logger.Info("session restored", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	m.setUser(user)
}

// Login exchanges credentials for a token, persists it, then loads the user.
// If the user lookup fails the token stays persisted and the error is
// returned with no current user.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*api.User, error) {
	token, err := m.backend.Login(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("persisting credential: %w", err)
	}
	m.setHasToken(true)

	user, err := m.backend.Me(ctx)
	if err != nil {
		m.setUser(nil)
		return nil, err
	}

	m.logger.Info("logged in", zap.Int64("user_id", user.ID))
	m.setUser(user)
	m.resolveBootstrap()
	return copyUser(user), nil
}

// Register creates an account and signs it in. Invalid forms fail locally.
func (m *Manager) Register(ctx context.Context, reg api.Registration) (*api.User, error) {
	if err := api.Validate(reg); err != nil {
		return nil, err
	}

	result, err := m.backend.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, result.AccessToken); err != nil {
		return nil, fmt.Errorf("persisting credential: %w", err)
	}
	m.setHasToken(true)

	user := result.User
	if user == nil {
		// Older backends return only the token.
		user, err = m.backend.Me(ctx)
		if err != nil {
			m.setUser(nil)
			return nil, err
		}
	}

	m.logger.Info("registered", zap.Int64("user_id", user.ID))
	m.setUser(user)
	m.resolveBootstrap()
	return copyUser(user), nil
}

// CompleteOnboarding submits the profile and replaces the current user with
// the updated record.
func (m *Manager) CompleteOnboarding(ctx context.Context, profile api.Profile) (*api.User, error) {
	if m.CurrentUser() == nil {
		return nil, ErrNotAuthenticated
	}
	if err := api.Validate(profile); err != nil {
		return nil, err
	}

	user, err := m.backend.CompleteOnboarding(ctx, profile)
	if err != nil {
		return nil, err
	}

	m.logger.Info("onboarding completed", zap.Int64("user_id", user.ID))
	m.setUser(user)
	return copyUser(user), nil
}

// Logout clears the credential and the user, then navigates to login.
// Safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context) {
	m.clearToken(ctx)

	m.mu.Lock()
	m.user = nil
	nav := m.nav
	m.mu.Unlock()

	if nav != nil {
		nav.Navigate(route.Login)
	}
}

func (m *Manager) clearToken(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("clearing persisted credential", zap.Error(err))
	}
	m.setHasToken(false)
}

func (m *Manager) setUser(user *api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = copyUser(user)
}

func (m *Manager) setHasToken(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasToken = v
}

// resolveBootstrap marks the session resolved after an explicit sign-in, so
// a later Bootstrap does not re-run Me and Loading cannot stay true.
func (m *Manager) resolveBootstrap() {
	m.bootOnce.Do(func() {})
	m.finishLoading()
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
}

func copyUser(u *api.User) *api.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
