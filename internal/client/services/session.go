// Package services contains application services for the community hub
// client. This file defines the session lifecycle manager: bootstrap from
// persisted state, login, register, OTP verification, logout and user
// record maintenance.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/dmitrijs2005/communityhub/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateBootstrapping State = "bootstrapping"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

const (
	DefaultReconcileTimeout = 5 * time.Second
	DefaultBootstrapTimeout = 10 * time.Second
)

var ErrReconcileTimeout = errors.New("user reconciliation timed out")

// AuthBackend is the remote side of authentication.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	VerifyOTP(ctx context.Context, email, otp string) (*models.AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
}

// TokenHolder keeps the bearer token in memory and in the session store.
type TokenHolder interface {
	Token() string
	SetToken(ctx context.Context, token string) error
}

// UserStore persists the cached user record.
type UserStore interface {
	User(ctx context.Context) (*models.User, error)
	SetUser(ctx context.Context, u *models.User) error
	Clear(ctx context.Context) error
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State           State        `json:"state"`
	User            *models.User `json:"user,omitempty"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	// TokenExpiresAt is zero unless the token is a JWT with an exp claim.
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
}

type SessionOption func(*SessionManager)

func WithLogger(l logging.Logger) SessionOption {
	return func(m *SessionManager) { m.logger = l }
}

func WithMetrics(mt *metrics.Metrics) SessionOption {
	return func(m *SessionManager) { m.metrics = mt }
}

func WithReconcileTimeout(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.reconcileTimeout = d
		}
	}
}

func WithBootstrapTimeout(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.bootstrapTimeout = d
		}
	}
}

// SessionManager owns the session state of the process.
//
// Overlapping login and logout calls are not serialized: each one applies
// its outcome under the lock when it completes, so the last to finish wins.
// Concurrent fetches of the user record share one backend call.
type SessionManager struct {
	backend AuthBackend
	tokens  TokenHolder
	store   UserStore
	logger  logging.Logger
	metrics *metrics.Metrics

	reconcileTimeout time.Duration
	bootstrapTimeout time.Duration

	bootOnce sync.Once
	sf       singleflight.Group

	mu       sync.Mutex
	state    State
	user     *models.User
	bootDone bool
	ops      int
	subs     map[int]func(Snapshot)
	nextSub  int
}

func NewSessionManager(backend AuthBackend, tokens TokenHolder, store UserStore, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		backend:          backend,
		tokens:           tokens,
		store:            store,
		logger:           logging.Nop(),
		reconcileTimeout: DefaultReconcileTimeout,
		bootstrapTimeout: DefaultBootstrapTimeout,
		state:            StateBootstrapping,
		subs:             make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap reconstructs the session from persisted state. It runs once;
// later calls return the current snapshot. It returns when reconciliation
// settles or when the bootstrap timeout forces the manager out of
// StateBootstrapping, whichever comes first.
func (m *SessionManager) Bootstrap(ctx context.Context) Snapshot {
	m.bootOnce.Do(func() { m.bootstrap(ctx) })
	return m.Snapshot()
}

func (m *SessionManager) bootstrap(ctx context.Context) {
	if m.tokens.Token() == "" {
		m.settleBoot()
		return
	}

	cached, err := m.store.User(ctx)
	if err != nil {
		m.logger.Warn(ctx, "cached user unreadable", "error", err)
	}
	if cached != nil {
		m.mu.Lock()
		if !m.bootDone {
			m.user = cached
			m.setStateLocked(StateAuthenticated)
		}
		m.mu.Unlock()
		m.notify()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.reconcile(ctx)
	}()

	outer := time.NewTimer(m.bootstrapTimeout)
	defer outer.Stop()

	select {
	case <-done:
	case <-outer.C:
		m.logger.Warn(ctx, "bootstrap timed out, keeping cached session")
	case <-ctx.Done():
	}
	m.settleBoot()
}

// reconcile replaces the cached user with the backend copy. Failures keep
// whatever bootstrap already set.
func (m *SessionManager) reconcile(ctx context.Context) {
	token := m.tokens.Token()
	u, err := m.fetchUser(ctx, token, m.reconcileTimeout)
	if err != nil {
		m.logger.Warn(ctx, "session reconciliation failed", "error", err)
		return
	}

	m.mu.Lock()
	if m.bootDone || m.tokens.Token() != token {
		m.mu.Unlock()
		m.logger.Debug(ctx, "late reconciliation result discarded")
		return
	}
	m.user = u
	m.setStateLocked(StateAuthenticated)
	m.mu.Unlock()

	if err := m.store.SetUser(ctx, u); err != nil {
		m.logger.Warn(ctx, "failed to cache user", "error", err)
	}
	m.notify()
}

// fetchUser races the backend call against timeout. The losing call is
// left running and its result dropped. Calls are shared per token only, so
// a call still in flight for an older session is never joined.
func (m *SessionManager) fetchUser(ctx context.Context, token string, timeout time.Duration) (*models.User, error) {
	type result struct {
		user *models.User
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		v, err, _ := m.sf.Do("me:"+token, func() (any, error) {
			return m.backend.Me(ctx)
		})
		u, _ := v.(*models.User)
		ch <- result{user: u, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err == nil && r.user == nil {
			return nil, errors.New("empty user record")
		}
		return r.user, r.err
	case <-timer.C:
		return nil, ErrReconcileTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *SessionManager) settleBoot() {
	m.mu.Lock()
	if m.bootDone {
		m.mu.Unlock()
		return
	}
	m.bootDone = true
	if m.user != nil {
		m.setStateLocked(StateAuthenticated)
	} else {
		m.setStateLocked(StateAnonymous)
	}
	m.mu.Unlock()
	m.notify()
}

// Login authenticates with the backend. The result is returned as is; a
// session is created only when it carries both a user and a token. On
// error the session is left untouched.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return m.authenticate(ctx, func() (*models.AuthResult, error) {
		return m.backend.Login(ctx, email, password)
	})
}

// Register creates an account. When the backend asks for verification the
// result has RequiresVerification set and no session is created.
func (m *SessionManager) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	return m.authenticate(ctx, func() (*models.AuthResult, error) {
		return m.backend.Register(ctx, req)
	})
}

func (m *SessionManager) VerifyOTP(ctx context.Context, email, otp string) (*models.AuthResult, error) {
	return m.authenticate(ctx, func() (*models.AuthResult, error) {
		return m.backend.VerifyOTP(ctx, email, otp)
	})
}

func (m *SessionManager) authenticate(ctx context.Context, call func() (*models.AuthResult, error)) (*models.AuthResult, error) {
	m.beginOp()
	defer m.endOp()

	res, err := call()
	if err != nil {
		return nil, err
	}
	if !res.HasSession() {
		return res, nil
	}
	if err := m.establish(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// establish persists token and user. A failure to persist the user rolls
// the token back so no half session remains.
func (m *SessionManager) establish(ctx context.Context, res *models.AuthResult) error {
	if err := m.tokens.SetToken(ctx, res.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := m.store.SetUser(ctx, res.User); err != nil {
		if rbErr := m.tokens.SetToken(ctx, ""); rbErr != nil {
			m.logger.Error(ctx, "token rollback failed", "error", rbErr)
		}
		return fmt.Errorf("store user: %w", err)
	}

	m.mu.Lock()
	m.user = res.User.Clone()
	m.bootDone = true
	m.setStateLocked(StateAuthenticated)
	m.mu.Unlock()
	m.notify()
	return nil
}

// Logout ends the session. The backend call is best effort; the local
// session is cleared even when it fails.
func (m *SessionManager) Logout(ctx context.Context) {
	m.beginOp()
	defer m.endOp()

	if err := m.backend.Logout(ctx); err != nil {
		m.logger.Warn(ctx, "backend logout failed", "error", err)
	}
	if err := m.tokens.SetToken(ctx, ""); err != nil {
		m.logger.Error(ctx, "failed to remove token", "error", err)
	}
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error(ctx, "failed to clear session store", "error", err)
	}

	m.mu.Lock()
	m.user = nil
	m.bootDone = true
	m.setStateLocked(StateAnonymous)
	m.mu.Unlock()
	m.notify()
}

// UpdateUser shallow-merges patch into the current user, in memory and in
// the store. Without a user it does nothing.
func (m *SessionManager) UpdateUser(ctx context.Context, patch map[string]any) error {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return nil
	}
	merged, err := m.user.Merge(patch)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("merge user: %w", err)
	}
	m.user = merged
	m.mu.Unlock()

	defer m.notify()
	if err := m.store.SetUser(ctx, merged); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// RefreshUser replaces the user with the backend copy. Errors are logged
// and leave the session as it was.
func (m *SessionManager) RefreshUser(ctx context.Context) {
	if !m.IsAuthenticated() {
		return
	}
	m.beginOp()
	defer m.endOp()

	token := m.tokens.Token()
	u, err := m.fetchUser(ctx, token, m.reconcileTimeout)
	if err != nil {
		m.logger.Warn(ctx, "user refresh failed", "error", err)
		return
	}

	m.mu.Lock()
	if m.user == nil || m.tokens.Token() != token {
		m.mu.Unlock()
		return
	}
	m.user = u
	m.mu.Unlock()

	if err := m.store.SetUser(ctx, u); err != nil {
		m.logger.Warn(ctx, "failed to cache user", "error", err)
	}
	m.notify()
}

// StartSessionWatcher refreshes the user every interval while
// authenticated, until ctx is done.
func (m *SessionManager) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.IsAuthenticated() {
				m.RefreshUser(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

func (m *SessionManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every state change and returns a func that
// removes it. fn runs outside the manager lock.
func (m *SessionManager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *SessionManager) snapshotLocked() Snapshot {
	return Snapshot{
		State:           m.state,
		User:            m.user.Clone(),
		IsAuthenticated: m.user != nil,
		IsLoading:       !m.bootDone || m.ops > 0,
		TokenExpiresAt:  tokenExpiry(m.tokens.Token()),
	}
}

func (m *SessionManager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.metrics.IncSessionTransition(string(s))
}

func (m *SessionManager) beginOp() {
	m.mu.Lock()
	m.ops++
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) endOp() {
	m.mu.Lock()
	m.ops--
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client has no key and only uses it for display.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
