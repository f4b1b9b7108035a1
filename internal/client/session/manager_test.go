package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func makeCredential(t *testing.T, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign credential: %v", err)
	}
	return signed
}

type fakeAPI struct {
	mu           sync.Mutex
	loginFn      func(email, password string) (*Credentials, error)
	refreshFn    func(credential string) (string, error)
	currentFn    func(credential string) (*Identity, error)
	logoutErr    error
	loginCalls   int
	refreshCalls int
	logoutCalls  int
	logoutSeen   string
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*Credentials, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("login not configured")
	}
	return fn(email, password)
}

func (f *fakeAPI) Refresh(_ context.Context, credential string) (string, error) {
	f.mu.Lock()
	f.refreshCalls++
	fn := f.refreshFn
	f.mu.Unlock()
	if fn == nil {
		return "", errors.New("refresh not configured")
	}
	return fn(credential)
}

func (f *fakeAPI) CurrentUser(_ context.Context, credential string) (*Identity, error) {
	f.mu.Lock()
	fn := f.currentFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("current user not configured")
	}
	return fn(credential)
}

func (f *fakeAPI) Logout(_ context.Context, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	f.logoutSeen = credential
	return f.logoutErr
}

func (f *fakeAPI) counts() (login, refresh, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.refreshCalls, f.logoutCalls
}

func waitForState(t *testing.T, m *Manager, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := m.Current()
		if snap.State == want {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, stuck at %s", want, m.Current().State)
	return Snapshot{}
}

func testIdentity() *Identity {
	return &Identity{ID: "user-1", FirstName: "Ada", Email: "ada@example.com", Role: "customer"}
}

func TestStartWithoutStoredCredentialIsAnonymous(t *testing.T) {
	m := NewManager(&fakeAPI{}, NewMemoryStorage())
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := waitForState(t, m, Anonymous)
	if snap.IsAuthenticated() {
		t.Fatal("anonymous snapshot must not be authenticated")
	}
}

func TestStartRejectsSecondCall(t *testing.T) {
	m := NewManager(&fakeAPI{}, NewMemoryStorage())
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("got %v, want ErrAlreadyStarted", err)
	}
}

func TestStartResolvesStoredCredential(t *testing.T) {
	credential := makeCredential(t, time.Hour)
	store := NewMemoryStorage()
	if err := store.Save(credential); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{
		currentFn: func(got string) (*Identity, error) {
			if got != credential {
				t.Errorf("resolved with %q, want stored credential", got)
			}
			return testIdentity(), nil
		},
	}
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := waitForState(t, m, Authenticated)
	if !snap.IsAuthenticated() || snap.Identity.ID != "user-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if m.Credential() != credential {
		t.Fatal("credential not retained after resolve")
	}
}

func TestStartDiscardsLocallyExpiredCredential(t *testing.T) {
	store := NewMemoryStorage()
	if err := store.Save(makeCredential(t, -time.Minute)); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{
		currentFn: func(string) (*Identity, error) {
			t.Error("expired credential must not reach the server")
			return nil, ErrUnauthorized
		},
	}
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, m, Anonymous)

	if stored, _ := store.Load(); stored != "" {
		t.Fatal("expired credential must be cleared from storage")
	}
}

func TestStartClearsCredentialWhenResolveFails(t *testing.T) {
	store := NewMemoryStorage()
	if err := store.Save(makeCredential(t, time.Hour)); err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{
		currentFn: func(string) (*Identity, error) { return nil, ErrUnauthorized },
	}
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForState(t, m, Anonymous)

	if stored, _ := store.Load(); stored != "" {
		t.Fatal("rejected credential must be cleared from storage")
	}
}

func TestLoginSuccess(t *testing.T) {
	credential := makeCredential(t, time.Hour)
	store := NewMemoryStorage()
	api := &fakeAPI{
		loginFn: func(email, password string) (*Credentials, error) {
			if email != "ada@example.com" || password != "secret" {
				t.Errorf("unexpected login payload %s/%s", email, password)
			}
			return &Credentials{Token: credential, Identity: *testIdentity()}, nil
		},
	}
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	snap := waitForState(t, m, Authenticated)
	if snap.Identity == nil || snap.Identity.Email != "ada@example.com" {
		t.Fatalf("unexpected identity: %+v", snap.Identity)
	}
	if stored, _ := store.Load(); stored != credential {
		t.Fatal("credential not persisted after login")
	}
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) { return nil, ErrUnauthorized },
	}
	m := NewManager(api, NewMemoryStorage())
	defer m.Close()

	err := m.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	snap := m.Current()
	if snap.State != Anonymous || snap.IsAuthenticated() {
		t.Fatalf("unexpected snapshot after failed login: %+v", snap)
	}
	if !errors.Is(snap.Err, ErrUnauthorized) {
		t.Fatalf("snapshot error not surfaced: %v", snap.Err)
	}
}

func TestSecondLoginWins(t *testing.T) {
	firstGate := make(chan struct{})
	firstEntered := make(chan struct{})
	credOld := makeCredential(t, time.Hour)
	credNew := makeCredential(t, 2*time.Hour)

	api := &fakeAPI{}
	api.loginFn = func(email, _ string) (*Credentials, error) {
		if email == "first@example.com" {
			close(firstEntered)
			<-firstGate
			return &Credentials{Token: credOld, Identity: Identity{ID: "first", Email: email}}, nil
		}
		return &Credentials{Token: credNew, Identity: Identity{ID: "second", Email: email}}, nil
	}

	store := NewMemoryStorage()
	m := NewManager(api, store)
	defer m.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Login(context.Background(), "first@example.com", "pw")
	}()
	<-firstEntered

	if err := m.Login(context.Background(), "second@example.com", "pw"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	close(firstGate)
	wg.Wait()

	snap := m.Current()
	if snap.State != Authenticated || snap.Identity.ID != "second" {
		t.Fatalf("first login must not override the second, got %+v", snap)
	}
	if stored, _ := store.Load(); stored != credNew {
		t.Fatal("storage must hold the second login's credential")
	}
}

func TestRenewSuccess(t *testing.T) {
	credOld := makeCredential(t, time.Hour)
	credNew := makeCredential(t, 2*time.Hour)
	store := NewMemoryStorage()
	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) {
			return &Credentials{Token: credOld, Identity: *testIdentity()}, nil
		},
		refreshFn: func(got string) (string, error) {
			if got != credOld {
				t.Errorf("refresh presented %q, want previous credential", got)
			}
			return credNew, nil
		},
	}
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	m.Renew(context.Background())

	snap := m.Current()
	if snap.State != Authenticated || snap.Identity == nil {
		t.Fatalf("unexpected snapshot after renew: %+v", snap)
	}
	if m.Credential() != credNew {
		t.Fatal("credential not rotated")
	}
	if stored, _ := store.Load(); stored != credNew {
		t.Fatal("rotated credential not persisted")
	}
}

func TestRenewFailureEndsSession(t *testing.T) {
	store := NewMemoryStorage()
	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) {
			return &Credentials{Token: makeCredential(t, time.Hour), Identity: *testIdentity()}, nil
		},
		refreshFn: func(string) (string, error) { return "", ErrUnauthorized },
	}
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	m.Renew(context.Background())

	snap := m.Current()
	if snap.State != LoggedOut || snap.IsAuthenticated() {
		t.Fatalf("refresh failure must end the session, got %+v", snap)
	}
	if stored, _ := store.Load(); stored != "" {
		t.Fatal("credential must be cleared after refresh failure")
	}

	// Never retried: one refresh call, no more.
	time.Sleep(20 * time.Millisecond)
	if _, refreshes, _ := api.counts(); refreshes != 1 {
		t.Fatalf("refresh retried %d times, want exactly 1 attempt", refreshes)
	}
}

func TestRefreshAfterLogoutIsDiscarded(t *testing.T) {
	refreshGate := make(chan struct{})
	refreshEntered := make(chan struct{})
	store := NewMemoryStorage()
	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) {
			return &Credentials{Token: makeCredential(t, time.Hour), Identity: *testIdentity()}, nil
		},
	}
	api.refreshFn = func(string) (string, error) {
		close(refreshEntered)
		<-refreshGate
		return makeCredential(t, 2*time.Hour), nil
	}

	m := NewManager(api, store)
	defer m.Close()

	if err := m.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Renew(context.Background())
	}()
	<-refreshEntered

	m.Logout(context.Background())
	close(refreshGate)
	wg.Wait()

	snap := m.Current()
	if snap.State != LoggedOut || snap.IsAuthenticated() {
		t.Fatalf("late refresh must not resurrect the session, got %+v", snap)
	}
	if stored, _ := store.Load(); stored != "" {
		t.Fatal("late refresh must not re-persist a credential")
	}
}

func TestLogoutNotifiesServerBestEffort(t *testing.T) {
	credential := makeCredential(t, time.Hour)
	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) {
			return &Credentials{Token: credential, Identity: *testIdentity()}, nil
		},
		logoutErr: errors.New("server unreachable"),
	}
	store := NewMemoryStorage()
	m := NewManager(api, store)
	defer m.Close()

	if err := m.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	m.Logout(context.Background())

	snap := m.Current()
	if snap.State != LoggedOut || snap.IsAuthenticated() {
		t.Fatalf("logout must clear the session even when the server call fails, got %+v", snap)
	}
	if stored, _ := store.Load(); stored != "" {
		t.Fatal("credential must be cleared on logout")
	}
	if _, _, logouts := api.counts(); logouts != 1 {
		t.Fatalf("server logout called %d times, want 1", logouts)
	}
	api.mu.Lock()
	seen := api.logoutSeen
	api.mu.Unlock()
	if seen != credential {
		t.Fatal("server logout must receive the credential that was active")
	}
}

func TestScheduledRenewalFires(t *testing.T) {
	// Credential expires in 150ms with a 100ms lead, so the timer fires
	// roughly 50ms after login.
	credShort := makeCredential(t, 150*time.Millisecond)
	credLong := makeCredential(t, time.Hour)

	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) {
			return &Credentials{Token: credShort, Identity: *testIdentity()}, nil
		},
		refreshFn: func(string) (string, error) { return credLong, nil },
	}
	m := NewManager(api, NewMemoryStorage(), WithRenewLead(100*time.Millisecond))
	defer m.Close()

	if err := m.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Credential() == credLong {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if m.Credential() != credLong {
		t.Fatal("scheduled renewal did not rotate the credential")
	}
	if snap := m.Current(); snap.State != Authenticated {
		t.Fatalf("unexpected state after scheduled renewal: %s", snap.State)
	}
}

func TestSafetyNetTriggersRenewal(t *testing.T) {
	// Lead longer than the credential TTL means the one-shot timer fires
	// immediately; instead, simulate a missed timer by logging in with a
	// long credential and moving the clock forward so only the recurring
	// check notices the looming expiry.
	credOld := makeCredential(t, time.Hour)
	credNew := makeCredential(t, 2*time.Hour)

	var clockMu sync.Mutex
	current := time.Now()
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return current
	}

	api := &fakeAPI{
		currentFn: func(string) (*Identity, error) { return testIdentity(), nil },
		refreshFn: func(string) (string, error) { return credNew, nil },
	}
	store := NewMemoryStorage()
	if err := store.Save(credOld); err != nil {
		t.Fatal(err)
	}

	m := NewManager(api, store,
		WithClock(clock),
		WithCheckInterval(10*time.Millisecond),
	)
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitForState(t, m, Authenticated)

	clockMu.Lock()
	current = current.Add(time.Hour - time.Minute)
	clockMu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Credential() == credNew {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("safety-net check did not trigger a renewal")
}

func TestSubscribeDeliversTransitions(t *testing.T) {
	credential := makeCredential(t, time.Hour)
	api := &fakeAPI{
		loginFn: func(string, string) (*Credentials, error) {
			return &Credentials{Token: credential, Identity: *testIdentity()}, nil
		},
	}
	m := NewManager(api, NewMemoryStorage())
	defer m.Close()

	ch := m.Subscribe()
	if first := <-ch; first.State != Idle {
		t.Fatalf("first delivery should be the current snapshot, got %s", first.State)
	}

	if err := m.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatal(err)
	}

	var states []State
	timeout := time.After(2 * time.Second)
	for len(states) < 2 {
		select {
		case snap := <-ch:
			states = append(states, snap.State)
		case <-timeout:
			t.Fatalf("timed out collecting transitions, got %v", states)
		}
	}
	if states[0] != Loading || states[1] != Authenticated {
		t.Fatalf("got transitions %v, want [loading authenticated]", states)
	}
}
