package endpoints

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/pkg/authn"
	"github.com/gatehouse/gatehouse/pkg/config"
	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/model"
	"github.com/gatehouse/gatehouse/pkg/server"
	"github.com/gatehouse/gatehouse/pkg/server/store"
	"github.com/gatehouse/gatehouse/pkg/token"
)

// fakeUserStore is an in-memory store.UserStore for endpoint tests.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

var _ store.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]*model.User{}}
	for _, u := range users {
		clone := *u
		s.users[u.ID] = &clone
	}
	return s
}

func (s *fakeUserStore) get(id string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone
	}
	return nil
}

func (s *fakeUserStore) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeUserStore) FindByID(id string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *fakeUserStore) FindByAPIKey(apiKey string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.APIKey != nil && *u.APIKey == apiKey })
}

func (s *fakeUserStore) Insert(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) List() ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) Count() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *fakeUserStore) update(id string, apply func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	apply(u)
	return nil
}

func (s *fakeUserStore) UpdateProfile(id, name string) error {
	return s.update(id, func(u *model.User) { u.Name = name })
}

func (s *fakeUserStore) UpdateRole(id string, role model.Role) error {
	return s.update(id, func(u *model.User) { u.Role = role })
}

func (s *fakeUserStore) UpdatePassword(id, passwordHash string) error {
	return s.update(id, func(u *model.User) { u.PasswordHash = &passwordHash })
}

func (s *fakeUserStore) SetAPIKey(id string, apiKey *string) error {
	return s.update(id, func(u *model.User) { u.APIKey = apiKey })
}

func (s *fakeUserStore) SetExternalSubject(id, subject string) error {
	return s.update(id, func(u *model.User) { u.OAuthSub = &subject })
}

func (s *fakeUserStore) TouchLastActive(id string) error {
	return s.update(id, func(u *model.User) {})
}

func (s *fakeUserStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// newTestServer builds a server with all endpoints registered and no
// database behind it.
func newTestServer(t *testing.T, users *fakeUserStore, mutate func(*config.GatehouseConfig)) *server.Server {
	t.Helper()

	cfg := &config.GatehouseConfig{
		SessionSecret: "test-secret",
		SessionTTL:    "1h",
		EnableAuth:    true,
		EnableSignup:  true,
		DefaultRole:   "pending",
		EnableAPIKeys: true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	codec, err := token.NewCodec([]byte(cfg.SessionSecret))
	require.NoError(t, err)

	role, err := cfg.ParsedDefaultRole()
	require.NoError(t, err)
	ttl, err := cfg.SessionTTLDuration()
	require.NoError(t, err)

	pipeline := authn.NewPipeline(users, codec, nil, nil, authn.Settings{
		DisableAuth:             !cfg.EnableAuth,
		EnableSignup:            cfg.EnableSignup,
		EnableAPIKeys:           cfg.EnableAPIKeys,
		APIKeyAllowedOperations: cfg.APIKeyAllowedOperations,
		DefaultRole:             role,
		SessionTTL:              ttl,
	})

	srv := server.NewServer(users, pipeline, nil, cfg, nil, "127.0.0.1", "0")
	RegisterAll(srv)
	return srv
}

// mustHash hashes a password for fixture users.
func mustHash(t *testing.T, password string) *string {
	t.Helper()
	hash, err := credentials.HashPassword(password)
	require.NoError(t, err)
	return &hash
}

// sessionFor mints a session token for an existing user.
func sessionFor(t *testing.T, srv *server.Server, userID string) string {
	t.Helper()
	raw, err := srv.Pipeline.IssueSession(userID)
	require.NoError(t, err)
	return raw
}
