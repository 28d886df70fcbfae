package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecomstack/ecommerce-api/internal/config"
	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/repository"
	"github.com/ecomstack/ecommerce-api/internal/utils"
)

// fakeUserStore is an in-memory UserStore with the repository's lockout
// bookkeeping semantics.
type fakeUserStore struct {
	users  map[uint64]model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}}
}

func (f *fakeUserStore) add(u model.User) model.User {
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	u := f.add(model.User{Email: email, PasswordHash: hash, Role: role, IsActive: true})
	return u.ID, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) RecordFailedAttempt(_ context.Context, userID uint64, threshold int, window time.Duration) error {
	u := f.users[userID]
	failed, until := utils.NextLockout(u.FailedAttempts, threshold, window, time.Now().UTC())
	u.FailedAttempts = failed
	u.LockedUntil = until
	f.users[userID] = u
	return nil
}

func (f *fakeUserStore) RecordSuccess(_ context.Context, userID uint64) error {
	u := f.users[userID]
	u.FailedAttempts = 0
	u.LockedUntil = nil
	f.users[userID] = u
	return nil
}

func (f *fakeUserStore) Deactivate(_ context.Context, userID uint64) error {
	u, ok := f.users[userID]
	if !ok || !u.IsActive {
		return repository.ErrNotFound
	}
	u.IsActive = false
	f.users[userID] = u
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u := f.users[userID]
	u.PasswordHash = hash
	f.users[userID] = u
	return nil
}

// fakeTokenStore mirrors the SQL contract of the token repository: rotation
// revokes the old hash and inserts the new one, and a replayed rotation
// fails as revoked.
type fakeTokenRow struct {
	userID  uint64
	jti     string
	exp     time.Time
	revoked bool
}

type fakeTokenStore struct {
	rows map[string]*fakeTokenRow
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{rows: map[string]*fakeTokenRow{}}
}

func (f *fakeTokenStore) StoreRefresh(_ context.Context, userID uint64, tokenHash, jti string, exp time.Time) error {
	f.rows[tokenHash] = &fakeTokenRow{userID: userID, jti: jti, exp: exp}
	return nil
}

func (f *fakeTokenStore) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	r, ok := f.rows[tokenHash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if r.revoked {
		return 0, repository.ErrTokenRevoked
	}
	if time.Now().UTC().After(r.exp) {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func (f *fakeTokenStore) Rotate(_ context.Context, userID uint64, oldHash, newHash, newJTI string, newExp time.Time) error {
	r, ok := f.rows[oldHash]
	if !ok || r.revoked {
		return repository.ErrTokenRevoked
	}
	r.revoked = true
	f.rows[newHash] = &fakeTokenRow{userID: userID, jti: newJTI, exp: newExp}
	return nil
}

func (f *fakeTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	if r, ok := f.rows[tokenHash]; ok {
		r.revoked = true
	}
	return nil
}

func (f *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, r := range f.rows {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

func authTestConfig() config.Config {
	return config.Config{
		AccessSecret:     "access-secret-for-handler-tests",
		RefreshSecret:    "refresh-secret-for-handler-tests",
		AccessTTL:        time.Hour,
		RefreshTTL:       24 * time.Hour,
		BcryptCost:       bcrypt.MinCost,
		LockoutThreshold: 3,
		LockoutWindow:    15 * time.Minute,
	}
}

func postJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rec
}

func TestRefreshRotationRevokesOldToken(t *testing.T) {
	cfg := authTestConfig()
	users, tokens := newFakeUserStore(), newFakeTokenStore()
	u := users.add(model.User{Email: "a@example.com", Role: model.RoleCustomer, IsActive: true})
	h := NewAuthHandler(cfg, users, tokens)

	old, err := utils.NewRefreshToken(cfg.RefreshSecret, u.ID, cfg.RefreshTTL)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	if err := tokens.StoreRefresh(context.Background(), u.ID, utils.HashRefreshRaw(old.Raw), old.JTI, old.Exp); err != nil {
		t.Fatalf("StoreRefresh() error = %v", err)
	}

	body := `{"refresh_token":"` + old.Raw + `"}`
	rec := postJSON(t, h.Refresh, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("first refresh status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Refresh.Token == "" || resp.Refresh.Token == old.Raw {
		t.Fatal("refresh did not return a new refresh token")
	}

	// Replaying the rotated token must fail as revoked, not mint a pair.
	rec = postJSON(t, h.Refresh, body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "refresh token revoked") {
		t.Errorf("replay body = %s, want refresh token revoked", rec.Body.String())
	}

	// The successor token is usable.
	rec = postJSON(t, h.Refresh, `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("successor refresh status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginLocksAccountAfterThreshold(t *testing.T) {
	cfg := authTestConfig()
	users, tokens := newFakeUserStore(), newFakeTokenStore()
	hash, err := utils.HashPassword("correct horse battery", cfg.BcryptCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users.add(model.User{Email: "b@example.com", PasswordHash: hash, Role: model.RoleCustomer, IsActive: true})
	h := NewAuthHandler(cfg, users, tokens)

	wrong := `{"email":"b@example.com","password":"wrong password"}`
	for i := 0; i < cfg.LockoutThreshold; i++ {
		rec := postJSON(t, h.Login, wrong)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid credentials") {
			t.Fatalf("attempt %d body = %s", i+1, rec.Body.String())
		}
	}

	// The window is now open: even the correct password is refused.
	rec := postJSON(t, h.Login, `{"email":"b@example.com","password":"correct horse battery"}`)
	if rec.Code != http.StatusLocked {
		t.Fatalf("locked login status = %d, want 423", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "account locked") {
		t.Errorf("locked login body = %s", rec.Body.String())
	}
}

func TestLoginDoesNotRevealAccounts(t *testing.T) {
	cfg := authTestConfig()
	users, tokens := newFakeUserStore(), newFakeTokenStore()
	hash, err := utils.HashPassword("secret-password", cfg.BcryptCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	users.add(model.User{Email: "known@example.com", PasswordHash: hash, Role: model.RoleCustomer, IsActive: true})
	h := NewAuthHandler(cfg, users, tokens)

	unknown := postJSON(t, h.Login, `{"email":"nobody@example.com","password":"whatever1"}`)
	wrongPw := postJSON(t, h.Login, `{"email":"known@example.com","password":"whatever1"}`)

	if unknown.Code != wrongPw.Code {
		t.Errorf("status differs: unknown=%d wrong-password=%d", unknown.Code, wrongPw.Code)
	}
	if unknown.Body.String() != wrongPw.Body.String() {
		t.Errorf("body differs: unknown=%s wrong-password=%s", unknown.Body.String(), wrongPw.Body.String())
	}
}
