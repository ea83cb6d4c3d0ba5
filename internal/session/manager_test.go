// ABOUTME: Tests for the session manager lifecycle against a scripted backend
// ABOUTME: Covers bootstrap outcomes, login/register persistence and logout navigation

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/credential"
	"github.com/2389/legisbot/internal/route"
)

type fakeBackend struct {
	meCalls    atomic.Int32
	loginCalls atomic.Int32
	regCalls   atomic.Int32

	me         func() (*api.User, error)
	login      func(username, password string) (string, error)
	register   func(reg api.Registration) (*api.AuthResult, error)
	onboarding func(p api.Profile) (*api.User, error)
}

func (f *fakeBackend) Me(ctx context.Context) (*api.User, error) {
	f.meCalls.Add(1)
	if f.me == nil {
		return nil, errors.New("unexpected Me call")
	}
	return f.me()
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (string, error) {
	f.loginCalls.Add(1)
	return f.login(username, password)
}

func (f *fakeBackend) Register(ctx context.Context, reg api.Registration) (*api.AuthResult, error) {
	f.regCalls.Add(1)
	return f.register(reg)
}

func (f *fakeBackend) CompleteOnboarding(ctx context.Context, p api.Profile) (*api.User, error) {
	return f.onboarding(p)
}

type failingStore struct {
	credential.Store
	err error
}

func (s failingStore) Load(ctx context.Context) (string, error) { return "", s.err }
func (s failingStore) Clear(ctx context.Context) error         { return s.err }

type recordingNavigator struct {
	mu    sync.Mutex
	calls []route.Route
}

func (n *recordingNavigator) Navigate(to route.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, to)
}

func loadToken(t *testing.T, s credential.Store) string {
	t.Helper()
	token, err := s.Load(context.Background())
	require.NoError(t, err)
	return token
}

var ana = &api.User{ID: 1, Email: "a@b.com", Role: api.RoleMember, OnboardingComplete: true}

func TestNew_StartsLoading(t *testing.T) {
	m := New(credential.NewMemoryStore(""), &fakeBackend{}, nil, nil)
	snap := m.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.CurrentUser)
}

func TestBootstrap_NoToken(t *testing.T) {
	backend := &fakeBackend{}
	m := New(credential.NewMemoryStore(""), backend, nil, nil)

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.CurrentUser)
	assert.False(t, snap.HasToken)
	assert.Zero(t, backend.meCalls.Load(), "no network call without a token")
}

func TestBootstrap_ValidToken(t *testing.T) {
	backend := &fakeBackend{me: func() (*api.User, error) { return ana, nil }}
	store := credential.NewMemoryStore("good")
	m := New(store, backend, nil, nil)

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, ana, snap.CurrentUser)
	assert.True(t, snap.HasToken)
	assert.Equal(t, "good", loadToken(t, store))
}

func TestBootstrap_RejectedTokenIsCleared(t *testing.T) {
	for _, failure := range []error{
		&api.APIError{StatusCode: 401, Message: "expired"},
		&api.APIError{StatusCode: 500},
		errors.New("connection refused"),
	} {
		t.Run(failure.Error(), func(t *testing.T) {
			backend := &fakeBackend{me: func() (*api.User, error) { return nil, failure }}
			store := credential.NewMemoryStore("stale")
			m := New(store, backend, nil, nil)

			m.Bootstrap(context.Background())

			snap := m.Snapshot()
			assert.False(t, snap.Loading)
			assert.Nil(t, snap.CurrentUser)
			assert.False(t, snap.HasToken)
			assert.Empty(t, loadToken(t, store))
		})
	}
}

func TestBootstrap_StoreFailureStillResolves(t *testing.T) {
	m := New(failingStore{err: errors.New("disk gone")}, &fakeBackend{}, nil, nil)
	m.Bootstrap(context.Background())
	assert.False(t, m.Snapshot().Loading)
}

func TestBootstrap_RunsOnce(t *testing.T) {
	backend := &fakeBackend{me: func() (*api.User, error) { return ana, nil }}
	m := New(credential.NewMemoryStore("good"), backend, nil, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Bootstrap(context.Background())
		}()
	}
	wg.Wait()

	// A later call after logout must not re-enter loading or refetch.
	m.Logout(context.Background())
	m.Bootstrap(context.Background())

	assert.Equal(t, int32(1), backend.meCalls.Load())
	assert.False(t, m.Snapshot().Loading)
	assert.Nil(t, m.Snapshot().CurrentUser)
}

func TestLogin_Success(t *testing.T) {
	fresh := &api.User{ID: 5, Email: "a@b.com", Role: api.RoleMember, OnboardingComplete: false}
	backend := &fakeBackend{
		login: func(username, password string) (string, error) {
			assert.Equal(t, "a@b.com", username)
			assert.Equal(t, "secret", password)
			return "tok", nil
		},
		me: func() (*api.User, error) { return fresh, nil },
	}
	store := credential.NewMemoryStore("")
	m := New(store, backend, nil, nil)
	m.Bootstrap(context.Background())

	user, err := m.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "tok", loadToken(t, store))
	assert.Equal(t, fresh, m.Snapshot().CurrentUser)
	assert.Equal(t, route.Onboarding, route.Landing(user), "incomplete onboarding lands on onboarding")
}

func TestLogin_BeforeBootstrapResolvesLoading(t *testing.T) {
	backend := &fakeBackend{
		login: func(username, password string) (string, error) { return "tok", nil },
		me:    func() (*api.User, error) { return ana, nil },
	}
	m := New(credential.NewMemoryStore(""), backend, nil, nil)
	require.True(t, m.Snapshot().Loading)

	_, err := m.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, route.Decision{Kind: route.Render}, route.Decide(snap.CurrentUser, snap.Loading, route.Chat))

	// Bootstrap afterwards is a no-op.
	m.Bootstrap(context.Background())
	assert.Equal(t, int32(1), backend.meCalls.Load())
	assert.Equal(t, ana, m.Snapshot().CurrentUser)
}

func TestRegister_BeforeBootstrapResolvesLoading(t *testing.T) {
	backend := &fakeBackend{
		register: func(api.Registration) (*api.AuthResult, error) {
			return &api.AuthResult{AccessToken: "reg", User: ana}, nil
		},
	}
	m := New(credential.NewMemoryStore(""), backend, nil, nil)

	_, err := m.Register(context.Background(), api.Registration{Name: "Ana", Email: "a@b.com", Password: "abc"})
	require.NoError(t, err)

	assert.False(t, m.Snapshot().Loading)
	m.Bootstrap(context.Background())
	assert.Zero(t, backend.meCalls.Load())
}

func TestLogin_RejectedPersistsNothing(t *testing.T) {
	rejected := &api.APIError{StatusCode: 401, Message: "Email o contraseña incorrectos"}
	backend := &fakeBackend{
		login: func(username, password string) (string, error) { return "", rejected },
	}
	store := credential.NewMemoryStore("")
	m := New(store, backend, nil, nil)

	_, err := m.Login(context.Background(), "a@b.com", "wrong")
	require.ErrorIs(t, err, rejected)
	assert.Empty(t, loadToken(t, store))
	assert.Zero(t, backend.meCalls.Load())
}

func TestLogin_MeFailureKeepsToken(t *testing.T) {
	backend := &fakeBackend{
		login: func(username, password string) (string, error) { return "tok", nil },
		me:    func() (*api.User, error) { return nil, errors.New("timeout") },
	}
	store := credential.NewMemoryStore("")
	m := New(store, backend, nil, nil)

	_, err := m.Login(context.Background(), "a@b.com", "secret")
	require.Error(t, err)
	assert.Equal(t, "tok", loadToken(t, store))
	assert.Nil(t, m.Snapshot().CurrentUser)
}

func TestRegister(t *testing.T) {
	reg := api.Registration{Name: "Ana", Email: "a@b.com", Password: "secret1"}

	t.Run("invalid form sends nothing", func(t *testing.T) {
		backend := &fakeBackend{}
		m := New(credential.NewMemoryStore(""), backend, nil, nil)

		_, err := m.Register(context.Background(), api.Registration{Email: "a@b.com"})
		require.ErrorIs(t, err, api.ErrValidation)
		assert.Zero(t, backend.regCalls.Load())
	})

	t.Run("returned user", func(t *testing.T) {
		fresh := &api.User{ID: 9, Email: "a@b.com", Role: api.RoleMember}
		backend := &fakeBackend{
			register: func(api.Registration) (*api.AuthResult, error) {
				return &api.AuthResult{AccessToken: "reg", TokenType: "bearer", User: fresh}, nil
			},
		}
		store := credential.NewMemoryStore("")
		m := New(store, backend, nil, nil)

		user, err := m.Register(context.Background(), reg)
		require.NoError(t, err)
		assert.Equal(t, fresh, user)
		assert.Equal(t, "reg", loadToken(t, store))
		assert.Zero(t, backend.meCalls.Load())
		assert.Equal(t, route.Onboarding, route.Landing(user))
	})

	t.Run("token only falls back to Me", func(t *testing.T) {
		backend := &fakeBackend{
			register: func(api.Registration) (*api.AuthResult, error) {
				return &api.AuthResult{AccessToken: "reg"}, nil
			},
			me: func() (*api.User, error) { return ana, nil },
		}
		m := New(credential.NewMemoryStore(""), backend, nil, nil)

		user, err := m.Register(context.Background(), reg)
		require.NoError(t, err)
		assert.Equal(t, ana, user)
	})

	t.Run("backend error propagated", func(t *testing.T) {
		dup := &api.APIError{StatusCode: 400, Message: "El email ya está registrado"}
		backend := &fakeBackend{
			register: func(api.Registration) (*api.AuthResult, error) { return nil, dup },
		}
		store := credential.NewMemoryStore("")
		m := New(store, backend, nil, nil)

		_, err := m.Register(context.Background(), reg)
		require.ErrorIs(t, err, dup)
		assert.Empty(t, loadToken(t, store))
	})
}

func TestCompleteOnboarding(t *testing.T) {
	profile := api.Profile{
		FirstName: "Ana", LastName: "Pérez", Country: api.DefaultCountry, Province: "Salta",
		Locality: "Cafayate", Age: 40, Occupation: "Docente",
	}
	pending := &api.User{ID: 5, Email: "a@b.com", Role: api.RoleMember}
	done := &api.User{ID: 5, Email: "a@b.com", Role: api.RoleMember, OnboardingComplete: true}

	backend := &fakeBackend{
		me:         func() (*api.User, error) { return pending, nil },
		onboarding: func(p api.Profile) (*api.User, error) { return done, nil },
	}

	t.Run("requires a user", func(t *testing.T) {
		m := New(credential.NewMemoryStore(""), backend, nil, nil)
		m.Bootstrap(context.Background())
		_, err := m.CompleteOnboarding(context.Background(), profile)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("replaces current user", func(t *testing.T) {
		m := New(credential.NewMemoryStore("tok"), backend, nil, nil)
		m.Bootstrap(context.Background())
		require.Equal(t, route.Onboarding, route.Landing(m.CurrentUser()))

		user, err := m.CompleteOnboarding(context.Background(), profile)
		require.NoError(t, err)
		assert.True(t, user.OnboardingComplete)
		assert.Equal(t, route.Dashboard, route.Landing(m.CurrentUser()))
	})
}

func TestLogout(t *testing.T) {
	backend := &fakeBackend{me: func() (*api.User, error) { return ana, nil }}
	store := credential.NewMemoryStore("tok")
	nav := &recordingNavigator{}
	m := New(store, backend, nav, nil)
	m.Bootstrap(context.Background())
	require.NotNil(t, m.CurrentUser())

	m.Logout(context.Background())
	m.Logout(context.Background())

	assert.Nil(t, m.CurrentUser())
	assert.Empty(t, loadToken(t, store))
	assert.Equal(t, []route.Route{route.Login, route.Login}, nav.calls)

	// Guard sees the change on the next evaluation.
	snap := m.Snapshot()
	assert.Equal(t, route.Decision{Kind: route.Redirect, To: route.Login}, route.Decide(snap.CurrentUser, snap.Loading, route.Chat))
}

func TestLogout_StoreErrorIsSwallowed(t *testing.T) {
	nav := &recordingNavigator{}
	m := New(failingStore{err: errors.New("read-only fs")}, &fakeBackend{}, nav, nil)
	m.Logout(context.Background())
	assert.Equal(t, []route.Route{route.Login}, nav.calls)
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	backend := &fakeBackend{me: func() (*api.User, error) { return ana, nil }}
	m := New(credential.NewMemoryStore("tok"), backend, nil, nil)
	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	snap.CurrentUser.Role = api.RoleAdmin
	assert.Equal(t, api.RoleMember, m.CurrentUser().Role)
}
