package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/glyphedit/glyphedit/internal/store"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]store.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]store.User), email: make(map[string]string)}
}

func (m *memUsers) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[arg.Email]; ok {
		return store.User{}, &pgconn.PgError{Code: "23505"}
	}
	u := store.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, DisplayName: arg.DisplayName}
	m.byID[u.ID] = u
	m.email[u.Email] = u.ID
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[email]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return m.byID[id], nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return store.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newTestService() *Service {
	s := NewService(newMemUsers(), "test-secret")
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, "ann@example.com", "hunter22", "Ann")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reg.User.ID, "user_"))
	assert.Equal(t, "Ann", reg.User.DisplayName)

	userID, err := s.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	login, err := s.Login(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.User, login.User)

	_, err = s.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Register(ctx, "ann@example.com", "another1", "Ann 2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestEmailsAreNormalized(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, "  Dee@Example.COM ", "password1", "Dee")
	require.NoError(t, err)
	assert.Equal(t, "dee@example.com", reg.User.Email)

	_, err = s.Login(ctx, "DEE@example.com", "password1")
	assert.NoError(t, err)
	_, err = s.Register(ctx, "dee@example.com", "password1", "Dee again")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestPasswordBounds(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Register(ctx, "eve@example.com", "short", "Eve")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = s.Register(ctx, "eve@example.com", strings.Repeat("p", maxPasswordLen+1), "Eve")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = s.Register(ctx, "eve@example.com", strings.Repeat("p", maxPasswordLen), "Eve")
	assert.NoError(t, err)
}

func TestGetUser(t *testing.T) {
	s := newTestService()
	reg, err := s.Register(context.Background(), "bo@example.com", "password1", "Bo")
	require.NoError(t, err)

	u, err := s.GetUser(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", u.Email)

	_, err = s.GetUser(context.Background(), "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenExpiry(t *testing.T) {
	s := newTestService()
	issued := time.Now()
	s.now = func() time.Time { return issued }
	token, err := s.issueToken(User{ID: "user_1"})
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(tokenTTL + time.Minute) }
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCarriesDisplayName(t *testing.T) {
	s := newTestService()
	reg, err := s.Register(context.Background(), "fi@example.com", "password1", "Fi")
	require.NoError(t, err)

	claims, err := s.ParseToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.Subject)
	assert.Equal(t, "Fi", claims.Name)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestForeignTokensRejected(t *testing.T) {
	s := newTestService()
	now := time.Now()
	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	valid := jwt.RegisteredClaims{
		Subject:   "user_1",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "other issuer", token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Subject: "user_1", Issuer: "elsewhere", ExpiresAt: valid.ExpiresAt,
		})},
		{name: "no expiry", token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Subject: "user_1", Issuer: tokenIssuer,
		})},
		{name: "no subject", token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
			Issuer: tokenIssuer, ExpiresAt: valid.ExpiresAt,
		})},
		{name: "other algorithm", token: sign(jwt.SigningMethodHS512, []byte("test-secret"), valid)},
		{name: "unsigned", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	userID, err := s.ValidateToken(sign(jwt.SigningMethodHS256, []byte("test-secret"), valid))
	require.NoError(t, err)
	assert.Equal(t, "user_1", userID)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	other := NewService(newMemUsers(), "other-secret")
	token, err := other.issueToken(User{ID: "user_1"})
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = newTestService().ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	s := newTestService()
	token, err := s.issueToken(User{ID: "user_42"})
	require.NoError(t, err)

	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserIDFromContext(r.Context())))
	}))

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{name: "bearer", header: "Bearer " + token, status: http.StatusOK, body: "user_42"},
		{name: "query token", query: "?token=" + token, status: http.StatusOK, body: "user_42"},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestHandlers(t *testing.T) {
	s := newTestService()
	h := NewHandler(s)

	post := func(fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		return rec
	}

	invalid := []struct {
		name string
		body string
		err  string
	}{
		{name: "short password", body: `{"email":"cy@example.com","password":"short","displayName":"Cy"}`, err: "password: must be 8 to 72 bytes"},
		{name: "bad email", body: `{"email":"not-an-email","password":"long-enough","displayName":"Cy"}`, err: "email: is not a valid address"},
		{name: "missing name", body: `{"email":"cy@example.com","password":"long-enough","displayName":"  "}`, err: "displayName: is required"},
		{name: "long name", body: `{"email":"cy@example.com","password":"long-enough","displayName":"` + strings.Repeat("n", maxDisplayName+1) + `"}`, err: "displayName: is too long"},
		{name: "not json", body: `{`, err: "invalid request body"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Register, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":`+strconv.Quote(tt.err)+`}`, rec.Body.String())
		})
	}

	rec := post(h.Register, `{"email":"Cy@Example.com","password":"long-enough","displayName":" Cy "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.NotEmpty(t, result.Token)

	rec = post(h.Register, `{"email":"cy@example.com","password":"long-enough","displayName":"Cy"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(h.Login, `{"email":"cy@example.com","password":"bad-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	rec = post(h.Login, `{"email":"cy@example.com","password":"long-enough"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(h.Login, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	me := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	h.Me(me, req.WithContext(WithUserID(req.Context(), result.User.ID)))
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"displayName":"Cy"`)

	missing := httptest.NewRecorder()
	h.Me(missing, req.WithContext(WithUserID(req.Context(), "user_gone")))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
