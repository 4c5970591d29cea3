package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mixhub/apiserver/internal/auth"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/internal/store"
	"github.com/mixhub/apiserver/types"
)

// memUserStore is an in-memory CredentialStore for handler tests, mirroring
// the SQL repository's reset-token and password-update semantics.
type memUserStore struct {
	users  map[int]*types.User
	nextID int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[int]*types.User{}, nextID: 1}
}

func (m *memUserStore) GetByID(_ context.Context, id int) (types.User, error) {
	u, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return *u, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserStore) GetByResetTokenHash(_ context.Context, tokenHash string, now time.Time) (types.User, error) {
	for _, u := range m.users {
		if u.PasswordResetTokenHash != nil && *u.PasswordResetTokenHash == tokenHash &&
			u.PasswordResetExpiresAt != nil && u.PasswordResetExpiresAt.After(now) {
			return *u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserStore) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	out := make([]types.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *memUserStore) Create(_ context.Context, user types.User) (types.User, error) {
	for _, u := range m.users {
		if u.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = &user
	return user, nil
}

func (m *memUserStore) Update(_ context.Context, user types.User) (types.User, error) {
	existing, ok := m.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	existing.Username = user.Username
	existing.Email = user.Email
	existing.Role = user.Role
	return *existing, nil
}

func (m *memUserStore) UpdatePassword(_ context.Context, id int, passwordHash string, changedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpiresAt = nil
	return nil
}

func (m *memUserStore) SetResetToken(_ context.Context, id int, tokenHash string, expiresAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordResetTokenHash = &tokenHash
	u.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (m *memUserStore) ClearResetToken(_ context.Context, id int) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpiresAt = nil
	return nil
}

func (m *memUserStore) Delete(_ context.Context, id int) error {
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserStore) AddSavedDrink(_ context.Context, userID, drinkID int) error {
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range u.SavedDrinkIDs {
		if id == drinkID {
			return nil
		}
	}
	u.SavedDrinkIDs = append(u.SavedDrinkIDs, drinkID)
	return nil
}

func (m *memUserStore) RemoveSavedDrink(_ context.Context, userID, drinkID int) error {
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for i, id := range u.SavedDrinkIDs {
		if id == drinkID {
			u.SavedDrinkIDs = append(u.SavedDrinkIDs[:i], u.SavedDrinkIDs[i+1:]...)
			return nil
		}
	}
	return nil
}

type recordingMailer struct {
	sendErr  error
	lastBody string
	sent     int
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.lastBody = body
	m.sent++
	return nil
}

// testEnv wires the user routes against in-memory dependencies.
type testEnv struct {
	router chi.Router
	users  *services.UserService
	tokens *auth.TokenService
	store  *memUserStore
	mailer *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	memStore := newMemUserStore()
	mailer := &recordingMailer{}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	users := services.NewUserService(
		memStore,
		auth.NewPasswordHasher(),
		tokens,
		mailer,
		nil,
		slog.New(slog.DiscardHandler),
	)
	mw := NewAuthMiddleware(tokens, users)
	cookies := auth.NewSessionCookieManager(90, false)

	router := chi.NewRouter()
	router.Route("/api/v1/users", func(r chi.Router) {
		UserRouter(r, users, mw, cookies, false)
	})

	return &testEnv{
		router: router,
		users:  users,
		tokens: tokens,
		store:  memStore,
		mailer: mailer,
	}
}

// do performs a request against the wired routes. A non-empty token is sent
// as a bearer header.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signup creates an account through the service and returns it with a token.
func (e *testEnv) signup(t *testing.T, username, email, password string) (types.User, string) {
	t.Helper()
	user, token, err := e.users.Signup(context.Background(), username, email, password)
	require.NoError(t, err)
	return user, token
}

// admin creates an elevated account directly and issues a token for it.
func (e *testEnv) admin(t *testing.T, email string) (types.User, string) {
	t.Helper()
	user, err := e.users.AdminCreate(context.Background(), "admin", email, "password123", types.RoleAdmin)
	require.NoError(t, err)
	token, err := e.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, token
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func authResponse(t *testing.T, rec *httptest.ResponseRecorder) AuthResponse {
	t.Helper()
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var _ services.CredentialStore = (*memUserStore)(nil)
