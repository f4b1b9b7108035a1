// Package session manages the client side of an authenticated session: it
// stores the credential, resolves the identity at startup, renews the
// credential before it expires, and publishes every state transition
// through a single serialized holder.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	// DefaultRenewLead is how long before expiry the renewal fires.
	DefaultRenewLead = 5 * time.Minute
	// DefaultCheckInterval is the safety-net re-evaluation period. It
	// catches renewals whose timer never fired, for example after a
	// device sleep.
	DefaultCheckInterval = 5 * time.Minute
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("session: manager already started")

// Manager is the single-instance session state machine. All transitions go
// through its mutex, and every async completion is stamped with the
// generation it started in: a result from a stale generation is discarded,
// so a refresh that lands after a logout can never resurrect the session.
type Manager struct {
	api   API
	store Storage
	log   zerolog.Logger

	renewLead     time.Duration
	checkInterval time.Duration
	now           func() time.Time

	mu         sync.Mutex
	gen        uint64
	snap       Snapshot
	credential string
	renewTimer *time.Timer
	subs       []chan Snapshot
	started    bool

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithRenewLead sets how long before expiry the proactive renewal fires.
func WithRenewLead(d time.Duration) Option {
	return func(m *Manager) { m.renewLead = d }
}

// WithCheckInterval sets the safety-net check period.
func WithCheckInterval(d time.Duration) Option {
	return func(m *Manager) { m.checkInterval = d }
}

// WithClock overrides the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger for background failures.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func NewManager(api API, store Storage, opts ...Option) *Manager {
	m := &Manager{
		api:           api,
		store:         store,
		log:           zerolog.Nop(),
		renewLead:     DefaultRenewLead,
		checkInterval: DefaultCheckInterval,
		now:           time.Now,
		snap:          Snapshot{State: Idle},
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start restores the session from storage. A stored credential that is
// locally expired is cleared without a network call; a live one is resolved
// asynchronously, leaving the manager in Loading until the server answers.
// Navigation must not block on Loading; observers are notified on settle.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.publishLocked(Snapshot{State: Loading})

	credential, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("credential load failed")
		credential = ""
	}

	if credential == "" {
		m.publishLocked(Snapshot{State: Anonymous})
		m.mu.Unlock()
		go m.runSafetyNet()
		return nil
	}

	if expiry, err := credentialExpiry(credential); err != nil || !expiry.After(m.now()) {
		m.clearStoreLocked()
		m.publishLocked(Snapshot{State: Anonymous})
		m.mu.Unlock()
		go m.runSafetyNet()
		return nil
	}

	gen := m.gen
	m.mu.Unlock()

	go m.resolveStored(ctx, gen, credential)
	go m.runSafetyNet()
	return nil
}

func (m *Manager) resolveStored(ctx context.Context, gen uint64, credential string) {
	identity, err := m.api.CurrentUser(ctx, credential)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if err != nil {
		m.log.Info().Err(err).Msg("stored credential rejected")
		m.clearStoreLocked()
		m.publishLocked(Snapshot{State: Anonymous})
		return
	}
	m.setAuthenticatedLocked(credential, identity)
}

// Login authenticates and replaces whatever session existed before. Starting
// a new login invalidates any in-flight operation from the previous one.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.stopRenewTimerLocked()
	m.credential = ""
	m.publishLocked(Snapshot{State: Loading})
	m.mu.Unlock()

	creds, err := m.api.Login(ctx, email, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		// A newer login or a logout superseded this attempt.
		return nil
	}
	if err != nil {
		m.publishLocked(Snapshot{State: Anonymous, Err: err})
		return err
	}

	if serr := m.store.Save(creds.Token); serr != nil {
		m.log.Warn().Err(serr).Msg("credential save failed")
	}
	identity := creds.Identity
	m.setAuthenticatedLocked(creds.Token, &identity)
	return nil
}

// Logout clears the session locally and notifies the server best-effort.
// The notification failing does not block the logout; credentials are
// stateless and the server holds nothing to tear down.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.stopRenewTimerLocked()
	credential := m.credential
	m.credential = ""
	m.clearStoreLocked()
	m.publishLocked(Snapshot{State: LoggedOut})
	m.mu.Unlock()

	if credential == "" {
		return
	}
	if err := m.api.Logout(ctx, credential); err != nil {
		m.log.Info().Err(err).Msg("server logout notification failed")
	}
}

// Renew triggers a credential refresh now. Call it when a request observes
// a 401 on a session believed to be live; the scheduled renewal uses the
// same path. A refresh failure ends the session: it is never retried, so an
// unreachable server cannot cause a refresh loop.
func (m *Manager) Renew(ctx context.Context) {
	m.mu.Lock()
	if m.snap.State != Authenticated {
		m.mu.Unlock()
		return
	}
	gen := m.gen
	credential := m.credential
	identity := m.snap.Identity
	m.publishLocked(Snapshot{State: Refreshing, Identity: identity})
	m.mu.Unlock()

	token, err := m.api.Refresh(ctx, credential)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if err != nil {
		m.log.Info().Err(err).Msg("credential refresh failed, ending session")
		m.stopRenewTimerLocked()
		m.credential = ""
		m.clearStoreLocked()
		m.publishLocked(Snapshot{State: LoggedOut, Err: err})
		return
	}

	if serr := m.store.Save(token); serr != nil {
		m.log.Warn().Err(serr).Msg("credential save failed")
	}
	m.setAuthenticatedLocked(token, identity)
}

// Current returns the latest snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Credential returns the credential to attach to outgoing requests, or ""
// when the session is not authenticated.
func (m *Manager) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential
}

// Subscribe returns a channel that receives the current snapshot and every
// subsequent transition. Delivery is non-blocking: a subscriber that stops
// draining loses updates instead of stalling the session.
func (m *Manager) Subscribe() <-chan Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Snapshot, 16)
	ch <- m.snap
	m.subs = append(m.subs, ch)
	return ch
}

// Close stops the renewal timer and the safety-net loop. It does not change
// session state.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.stopRenewTimerLocked()
		m.mu.Unlock()
		close(m.done)
	})
}

// setAuthenticatedLocked installs a credential and identity, publishes the
// Authenticated snapshot and schedules the proactive renewal.
func (m *Manager) setAuthenticatedLocked(credential string, identity *Identity) {
	m.credential = credential
	m.publishLocked(Snapshot{State: Authenticated, Identity: identity})
	m.scheduleRenewLocked(credential)
}

// scheduleRenewLocked arms the one-shot renewal timer to fire renewLead
// before the credential's embedded expiry, clamped to zero when that point
// has already passed. Any previously armed timer is cancelled first so two
// renewals never race.
func (m *Manager) scheduleRenewLocked(credential string) {
	m.stopRenewTimerLocked()

	expiry, err := credentialExpiry(credential)
	if err != nil {
		m.log.Warn().Err(err).Msg("credential expiry unreadable, renewal not scheduled")
		return
	}

	delay := expiry.Sub(m.now()) - m.renewLead
	if delay < 0 {
		delay = 0
	}
	m.renewTimer = time.AfterFunc(delay, func() {
		m.Renew(context.Background())
	})
}

func (m *Manager) stopRenewTimerLocked() {
	if m.renewTimer != nil {
		m.renewTimer.Stop()
		m.renewTimer = nil
	}
}

// runSafetyNet re-evaluates "expiring soon" on a fixed interval, catching
// renewals whose timer was missed.
func (m *Manager) runSafetyNet() {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			needsRenew := false
			if m.snap.State == Authenticated && m.credential != "" {
				if expiry, err := credentialExpiry(m.credential); err == nil {
					needsRenew = expiry.Sub(m.now()) <= m.renewLead
				}
			}
			m.mu.Unlock()
			if needsRenew {
				m.Renew(context.Background())
			}
		}
	}
}

func (m *Manager) publishLocked(snap Snapshot) {
	m.snap = snap
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is not draining; drop rather than block.
		}
	}
}

func (m *Manager) clearStoreLocked() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("credential clear failed")
	}
}

// credentialExpiry reads the expiry embedded in the credential without
// verifying the signature. The client holds no secret; verification is the
// server's job, the client only needs the timestamp for scheduling.
func credentialExpiry(credential string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return time.Time{}, fmt.Errorf("decode credential: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("credential has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}
