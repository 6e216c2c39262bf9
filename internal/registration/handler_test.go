// AngelaMos | 2026
// handler_test.go

package registration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/registration-api/internal/activation"
	"github.com/carterperez-dev/templates/registration-api/internal/auth"
	"github.com/carterperez-dev/templates/registration-api/internal/core"
	"github.com/carterperez-dev/templates/registration-api/internal/user"
)

type account struct {
	user     *user.User
	password string
	code     string
}

// fakeBackend stands in for the user registry, auth gate and code engine
// together so handler tests exercise the real Service.
type fakeBackend struct {
	mu        sync.Mutex
	accounts  map[string]*account
	redeemErr error
	createErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{accounts: make(map[string]*account)}
}

func (f *fakeBackend) Create(_ context.Context, email, hash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	email = user.NormalizeEmail(email)
	if _, ok := f.accounts[email]; ok {
		return nil, user.ErrEmailAlreadyUsed
	}

	u := &user.User{
		ID:           "u-" + email,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.accounts[email] = &account{user: u, password: strings.TrimPrefix(hash, "hashed:")}
	return u, nil
}

func (f *fakeBackend) Authenticate(_ context.Context, email, password string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[user.NormalizeEmail(email)]
	if !ok || acc.password != password {
		return nil, auth.ErrInvalidCredentials
	}
	u := *acc.user
	return &u, nil
}

func (f *fakeBackend) Issue(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, acc := range f.accounts {
		if acc.user.ID == userID {
			acc.code = "4821"
			return acc.code, nil
		}
	}
	return "", errors.New("unknown user")
}

func (f *fakeBackend) Redeem(_ context.Context, userID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.redeemErr != nil {
		return f.redeemErr
	}
	for _, acc := range f.accounts {
		if acc.user.ID == userID {
			if acc.code != code {
				return activation.ErrInvalidCode
			}
			acc.user.Active = true
			return nil
		}
	}
	return activation.ErrInvalidCode
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string]string
}

func (n *recordingNotifier) Enqueue(email, code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[email] = code
}

type testEnv struct {
	router   http.Handler
	backend  *fakeBackend
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := newFakeBackend()
	notifier := &recordingNotifier{sent: make(map[string]string)}

	svc := NewService(stubHasher{}, backend, backend, backend, logger)
	h := NewHandler(svc, notifier, logger)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		h.RegisterRoutes(r, Limits{})
	})

	return &testEnv{router: r, backend: backend, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func registerRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func activateRequest(email, password, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/users/activate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.SetBasicAuth(email, password)
	}
	return req
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorResponse {
	t.Helper()
	var body core.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func (e *testEnv) register(t *testing.T) {
	t.Helper()
	rec := e.do(t, registerRequest(`{"email":"alice@example.com","password":"password123"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_Register(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, registerRequest(`{"email":"Alice@Example.com","password":"password123"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, false, body["active"])
	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["created_at"])
	assert.NotContains(t, body, "code")
	assert.NotContains(t, body, "password_hash")

	assert.Equal(t, "4821", env.notifier.sent["alice@example.com"])
}

func TestHandler_Register_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	rec := env.do(t, registerRequest(`{"email":"ALICE@example.com","password":"password456"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, core.KindEmailAlreadyUsed, body.Error)
	assert.Equal(t, core.CodeEmailAlreadyUsed, body.Code)
}

func TestHandler_Register_ConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)

	const attempts = 8
	codes := make([]int, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := env.do(t, registerRequest(`{"email":"race@example.com","password":"password123"}`))
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
}

func TestHandler_Register_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"email":`},
		{name: "bad email", body: `{"email":"not-an-email","password":"password123"}`},
		{name: "missing email", body: `{"password":"password123"}`},
		{name: "short password", body: `{"email":"alice@example.com","password":"short"}`},
		{name: "long password", body: `{"email":"alice@example.com","password":"` + strings.Repeat("p", 129) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, registerRequest(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, core.CodeValidation, errorBody(t, rec).Code)
			assert.Empty(t, env.notifier.sent)
		})
	}
}

func TestHandler_Register_InternalError(t *testing.T) {
	env := newTestEnv(t)
	env.backend.createErr = errors.New("pq: connection refused to 10.0.0.5")

	rec := env.do(t, registerRequest(`{"email":"alice@example.com","password":"password123"}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, core.CodeInternal, body.Code)
	assert.NotContains(t, body.Message, "10.0.0.5")
}

func TestHandler_Activate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	rec := env.do(t, activateRequest("alice@example.com", "password123", `{"code":"4821"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var body core.MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Account activated successfully", body.Message)

	rec = env.do(t, activateRequest("alice@example.com", "password123", `{"code":"4821"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, core.CodeAlreadyActive, errorBody(t, rec).Code)
}

func TestHandler_Activate_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		body       string
		redeemErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing basic auth",
			body:       `{"code":"4821"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeInvalidCredentials,
		},
		{
			name:       "wrong password",
			email:      "alice@example.com",
			password:   "nope",
			body:       `{"code":"4821"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeInvalidCredentials,
		},
		{
			name:       "unknown email",
			email:      "bob@example.com",
			password:   "password123",
			body:       `{"code":"4821"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeInvalidCredentials,
		},
		{
			name:       "wrong code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"1234"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeInvalidCode,
		},
		{
			name:       "expired code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"4821"}`,
			redeemErr:  activation.ErrCodeExpired,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeCodeExpired,
		},
		{
			name:       "non numeric code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"12a4"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeValidation,
		},
		{
			name:       "signed code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"-123"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeValidation,
		},
		{
			name:       "plus signed code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"+123"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeValidation,
		},
		{
			name:       "decimal code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"1.23"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeValidation,
		},
		{
			name:       "short code",
			email:      "alice@example.com",
			password:   "password123",
			body:       `{"code":"123"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   core.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.register(t)
			env.backend.redeemErr = tt.redeemErr

			rec := env.do(t, activateRequest(tt.email, tt.password, tt.body))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorBody(t, rec).Code)

			if tt.wantStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
