package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// mockStore is a map-backed CredentialStore with the same indexed
// token lookups a real adapter provides.
type mockStore struct {
	mu      sync.Mutex
	users   map[string]*UserRecord
	byEmail map[string]string

	failNext error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[string]*UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *mockStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockStore) FindByID(_ context.Context, id string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	rec, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *mockStore) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *m.users[id]
	return &clone, nil
}

func (m *mockStore) FindByResetToken(_ context.Context, token string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	for _, rec := range m.users {
		if rec.ResetToken != "" && rec.ResetToken == token {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockStore) FindByVerificationToken(_ context.Context, token string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	for _, rec := range m.users {
		if rec.VerificationToken != "" && rec.VerificationToken == token {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockStore) Create(_ context.Context, rec *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if _, exists := m.byEmail[rec.Email]; exists {
		return ErrEmailExists
	}
	clone := *rec
	m.users[rec.ID] = &clone
	m.byEmail[rec.Email] = rec.ID
	return nil
}

func (m *mockStore) Save(_ context.Context, rec *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if _, ok := m.users[rec.ID]; !ok {
		return ErrUserNotFound
	}
	clone := *rec
	m.users[rec.ID] = &clone
	m.byEmail[rec.Email] = rec.ID
	return nil
}

func (m *mockStore) get(t *testing.T, id string) *UserRecord {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[id]
	if !ok {
		t.Fatalf("user %s not in store", id)
	}
	clone := *rec
	return &clone
}

type sentMessage struct {
	Email string
	Token string
	TTL   time.Duration
}

// mockNotifier records dispatched tokens.
type mockNotifier struct {
	mu            sync.Mutex
	resets        []sentMessage
	verifications []sentMessage
	failNext      error
}

func (n *mockNotifier) SendPasswordReset(_ context.Context, email, token string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failNext; err != nil {
		n.failNext = nil
		return err
	}
	n.resets = append(n.resets, sentMessage{Email: email, Token: token, TTL: ttl})
	return nil
}

func (n *mockNotifier) SendEmailVerification(_ context.Context, email, token string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failNext; err != nil {
		n.failNext = nil
		return err
	}
	n.verifications = append(n.verifications, sentMessage{Email: email, Token: token, TTL: ttl})
	return nil
}

func (n *mockNotifier) lastReset(t *testing.T) sentMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resets) == 0 {
		t.Fatal("no reset message dispatched")
	}
	return n.resets[len(n.resets)-1]
}

func (n *mockNotifier) lastVerification(t *testing.T) sentMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.verifications) == 0 {
		t.Fatal("no verification message dispatched")
	}
	return n.verifications[len(n.verifications)-1]
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	// Cheap argon2 parameters; the tests exercise flow, not cost.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Lockout.MaxAttempts = 3
	cfg.Lockout.Duration = 15 * time.Minute
	cfg.Verification.RequireOnRegister = false
	return cfg
}

type testEnv struct {
	svc      *Service
	store    *mockStore
	notifier *mockNotifier
	clock    *testClock
}

func newTestService(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	_, rdb := newTestRedis(t)
	store := newMockStore()
	notifier := &mockNotifier{}
	clock := newTestClock()

	svc, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithNotifier(notifier).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	return &testEnv{svc: svc, store: store, notifier: notifier, clock: clock}
}

const (
	testPassword  = "k9#Vm2$xQp7!wEz4"
	testPassword2 = "Ty5&Hn8*Rd3@uIo6"
)

func registerActiveUser(t *testing.T, env *testEnv, email string) *RegisterResult {
	t.Helper()

	result, err := env.svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  testPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      "freelancer",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}
