package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	repo "github.com/piousdev/roel-agency/internal/domain/repository"
)

// memStore is an in-memory stand-in for the four auth tables.
type memStore struct {
	mu            sync.Mutex
	users         map[string]entity.User
	sessions      map[string]entity.Session
	accounts      map[string]entity.Account
	verifications map[string]entity.Verification
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]entity.User{},
		sessions:      map[string]entity.Session{},
		accounts:      map[string]entity.Account{},
		verifications: map[string]entity.Verification{},
	}
}

type memUsers struct{ *memStore }
type memSessions struct{ *memStore }
type memAccounts struct{ *memStore }
type memVerifications struct{ *memStore }

func stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}

func (m memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memUsers) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) SetEmailVerified(_ context.Context, id string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.EmailVerified = verified
	m.users[id] = u
	return nil
}

func (m memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.users, id)
	for k, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, k)
		}
	}
	for k, a := range m.accounts {
		if a.UserID == id {
			delete(m.accounts, k)
		}
	}
	return nil
}

func (m memSessions) Create(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[s.UserID]; !ok {
		return repo.ErrNotFound
	}
	for _, existing := range m.sessions {
		if existing.Token == s.Token {
			return repo.ErrDuplicate
		}
	}
	stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	m.sessions[s.ID] = *s
	return nil
}

func (m memSessions) GetByToken(_ context.Context, token string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Token == token {
			return &s, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memSessions) ListByUser(_ context.Context, userID string) ([]entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Session, 0)
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memSessions) UpdateExpiry(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.ExpiresAt = expiresAt
	m.sessions[id] = s
	return nil
}

func (m memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m memSessions) DeleteByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.sessions {
		if s.Token == token {
			delete(m.sessions, k)
		}
	}
	return nil
}

func (m memSessions) DeleteByUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tokens []string
	for k, s := range m.sessions {
		if s.UserID == userID {
			tokens = append(tokens, s.Token)
			delete(m.sessions, k)
		}
	}
	return tokens, nil
}

func (m memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

func (m memAccounts) Create(_ context.Context, a *entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[a.UserID]; !ok {
		return repo.ErrNotFound
	}
	stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	m.accounts[a.ID] = *a
	return nil
}

func (m memAccounts) GetByProvider(_ context.Context, providerID, accountID string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ProviderID == providerID && a.AccountID == accountID {
			return &a, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memAccounts) ListByUser(_ context.Context, userID string) ([]entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.Account, 0)
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memAccounts) UpdatePassword(_ context.Context, id string, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Password = &password
	m.accounts[id] = a
	return nil
}

func (m memVerifications) Create(_ context.Context, v *entity.Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	m.verifications[v.ID] = *v
	return nil
}

func (m memVerifications) GetByValue(_ context.Context, value string) (*entity.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.verifications {
		if v.Value == value {
			return &v, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memVerifications) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.verifications[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.verifications, id)
	return nil
}

func (m memVerifications) DeleteByIdentifier(_ context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.verifications {
		if v.Identifier == identifier {
			delete(m.verifications, k)
		}
	}
	return nil
}

func (m memVerifications) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, v := range m.verifications {
		if !v.ExpiresAt.After(now) {
			delete(m.verifications, k)
			n++
		}
	}
	return n, nil
}

// passTx runs fn directly; the in-memory store has no transactions.
type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]entity.AuthSession
}

func newMemCache() *memCache { return &memCache{entries: map[string]entity.AuthSession{}} }

func (c *memCache) Get(_ context.Context, token string) (*entity.AuthSession, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[token]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *memCache) Set(_ context.Context, s *entity.AuthSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.Session.Token] = *s
	return nil
}

func (c *memCache) Delete(_ context.Context, tokens ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tokens {
		delete(c.entries, t)
	}
	return nil
}

func (c *memCache) has(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[token]
	return ok
}

type published struct {
	msgType string
	body    any
}

type memPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *memPublisher) PublishJSON(_ context.Context, msgType string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{msgType: msgType, body: body})
	return nil
}

func (p *memPublisher) last() (published, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return published{}, false
	}
	return p.msgs[len(p.msgs)-1], true
}

type fixture struct {
	store  *memStore
	cache  *memCache
	pub    *memPublisher
	logs   *logtest.Hook
	logger *logrus.Logger
	auth   *AuthService
	users  *UserService
}

func newFixture() *fixture {
	store := newMemStore()
	cache := newMemCache()
	pub := &memPublisher{}
	logger, hook := logtest.NewNullLogger()
	auth := NewAuthService(
		memUsers{store}, memSessions{store}, memAccounts{store}, memVerifications{store},
		passTx{}, cache, pub, logger,
		AuthOptions{
			AppName:           "Roel",
			SessionTTL:        7 * 24 * time.Hour,
			UpdateAge:         24 * time.Hour,
			VerificationTTL:   time.Hour,
			ResetTokenTTL:     time.Hour,
			MinPasswordLength: 8,
			VerifyEmailURL:    "https://app.example.com/verify-email",
			ResetPasswordURL:  "https://app.example.com/reset-password",
			SendEmail:         true,
		},
	)
	return &fixture{
		store:  store,
		cache:  cache,
		pub:    pub,
		logs:   hook,
		logger: logger,
		auth:   auth,
		users:  NewUserService(memUsers{store}, memSessions{store}, cache, logger),
	}
}
