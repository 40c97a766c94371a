package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/services"
	"github.com/adanyl0v/go-reminders/internal/timer"
)

const testUserID = "0190a6c4-7b1e-7000-8000-000000000001"

var testNow = time.UnixMilli(1_700_000_000_000)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	services.AuthService
	claims   map[string]*jwt.RegisteredClaims
	expired  map[string]bool
	refresh  *services.LoginResult
	refreshs int
}

func (f *fakeAuth) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	if f.expired[token] {
		return nil, jwt.ErrTokenExpired
	}
	claims, ok := f.claims[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return claims, nil
}

func (f *fakeAuth) Refresh(_ context.Context, params services.RefreshParams) (*services.LoginResult, error) {
	f.refreshs++
	if f.refresh == nil || params.RefreshToken != "refresh" {
		return nil, services.ErrSessionNotFound
	}
	return f.refresh, nil
}

type fakeSessions struct {
	services.SessionService
	sessions map[string]*models.Session
}

func (f *fakeSessions) GetSessionByID(_ context.Context, id string) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return s, nil
}

type fakeReminders struct {
	services.ReminderService
	list      []*models.Reminder
	created   services.CreateReminderParams
	applyErr  error
	applied   services.ApplyActionParams
	sync      *services.SyncResult
	reordered []timer.OrderUpdate
}

func (f *fakeReminders) CreateReminder(_ context.Context, params services.CreateReminderParams) (*models.Reminder, error) {
	f.created = params
	r, err := timer.NewReminder(timer.NewReminderParams{
		UserID:      params.UserID,
		Title:       params.Title,
		Category:    params.Category,
		UpgradeType: params.UpgradeType,
		Hours:       params.Hours,
		Minutes:     params.Minutes,
		Seconds:     params.Seconds,
	}, timer.Millis(testNow))
	if err != nil {
		return nil, err
	}
	r.ID = "created"
	return &r, nil
}

func (f *fakeReminders) GetReminders(context.Context, string) ([]*models.Reminder, error) {
	return f.list, nil
}

func (f *fakeReminders) GetReminder(_ context.Context, params services.ReminderParams) (*models.Reminder, error) {
	for _, r := range f.list {
		if r.ID == params.ID {
			return r, nil
		}
	}
	return nil, services.ErrReminderNotFound
}

func (f *fakeReminders) ApplyAction(_ context.Context, params services.ApplyActionParams) (*models.Reminder, error) {
	f.applied = params
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &models.Reminder{ID: params.ID, Category: "walls"}, nil
}

func (f *fakeReminders) DeleteReminder(_ context.Context, params services.ReminderParams) error {
	if params.ID != "r1" {
		return services.ErrReminderNotFound
	}
	return nil
}

func (f *fakeReminders) Sync(context.Context, string) (*services.SyncResult, error) {
	if f.sync == nil {
		return &services.SyncResult{}, nil
	}
	return f.sync, nil
}

func (f *fakeReminders) Reorder(_ context.Context, _ string, updates []timer.OrderUpdate) (*services.ReorderResult, error) {
	f.reordered = updates
	return &services.ReorderResult{Applied: len(updates) - 1, Failed: []string{updates[len(updates)-1].ID}}, nil
}

type testServer struct {
	router    *gin.Engine
	auth      *fakeAuth
	sessions  *fakeSessions
	reminders *fakeReminders
}

func newTestServer(limiter *RateLimiter) *testServer {
	ts := &testServer{
		auth: &fakeAuth{
			claims:  map[string]*jwt.RegisteredClaims{},
			expired: map[string]bool{},
		},
		sessions:  &fakeSessions{sessions: map[string]*models.Session{}},
		reminders: &fakeReminders{},
	}
	h := New(zerolog.Nop(), ts.auth, ts.sessions, ts.reminders, limiter, func() time.Time { return testNow })
	ts.router = gin.New()
	Register(ts.router, h)
	return ts
}

func fingerprintOf(t *testing.T, req *http.Request) string {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	fp, err := generateFingerprint(c)
	require.NoError(t, err)
	return fp
}

// login registers a valid token and session for requests built by request.
func (ts *testServer) login(t *testing.T) {
	t.Helper()
	ts.auth.claims["token"] = &jwt.RegisteredClaims{Subject: "session"}
	ts.sessions.sessions["session"] = &models.Session{
		ID:          "session",
		UserID:      testUserID,
		Fingerprint: fingerprintOf(t, newRequest(http.MethodGet, "/", "", "")),
	}
}

func newRequest(method, path, body, token string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(nil)
	w := ts.do(newRequest(http.MethodGet, "/healthz", "", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	tests := []struct {
		name string
		req  func() *http.Request
		code int
	}{
		{
			name: "no credentials",
			req:  func() *http.Request { return newRequest(http.MethodGet, "/api/v1/reminders", "", "") },
			code: http.StatusUnauthorized,
		},
		{
			name: "invalid token",
			req:  func() *http.Request { return newRequest(http.MethodGet, "/api/v1/reminders", "", "garbage") },
			code: http.StatusUnauthorized,
		},
		{
			name: "valid token",
			req:  func() *http.Request { return newRequest(http.MethodGet, "/api/v1/reminders", "", "token") },
			code: http.StatusOK,
		},
		{
			name: "fingerprint mismatch",
			req: func() *http.Request {
				req := newRequest(http.MethodGet, "/api/v1/reminders", "", "token")
				req.Header.Set("User-Agent", "somebody else")
				return req
			},
			code: http.StatusUnauthorized,
		},
		{
			name: "token from cookie",
			req: func() *http.Request {
				req := newRequest(http.MethodGet, "/api/v1/reminders", "", "")
				req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "token"})
				return req
			},
			code: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(tt.req())
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddleware_RefreshesExpiredToken(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)
	ts.auth.expired["stale"] = true
	ts.auth.refresh = &services.LoginResult{
		UserID:                testUserID,
		SessionID:             "session",
		AccessToken:           "token",
		AccessTokenExpiresAt:  testNow.Add(time.Minute),
		RefreshToken:          "refresh-2",
		RefreshTokenExpiresAt: testNow.Add(time.Hour),
	}

	req := newRequest(http.MethodGet, "/api/v1/reminders", "", "stale")
	req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh"})
	w := ts.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, ts.auth.refreshs)

	cookies := w.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{accessTokenCookie, refreshTokenCookie}, names)

	// without a refresh cookie an expired token is rejected
	w = ts.do(newRequest(http.MethodGet, "/api/v1/reminders", "", "stale"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateReminder(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	w := ts.do(newRequest(http.MethodPost, "/api/v1/reminders",
		`{"title":"  Walls ","category":"defense","upgradeType":"building","minutes":5}`, "token"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := decode[reminderResponse](t, w)
	assert.Equal(t, testUserID, ts.reminders.created.UserID)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Walls", *got.Title)
	assert.EqualValues(t, 300, got.TotalSeconds)
	assert.EqualValues(t, 300, got.RemainingSeconds)
	assert.True(t, got.IsActive)
	assert.Equal(t, testNow.UnixMilli()+300_000, got.EndTime)
}

func TestCreateReminder_Invalid(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	bodies := map[string]string{
		"missing category": `{"upgradeType":"lab","seconds":5}`,
		"bad upgrade":      `{"category":"x","upgradeType":"castle","seconds":5}`,
		"negative":         `{"category":"x","upgradeType":"lab","seconds":-5}`,
		"zero duration":    `{"category":"x","upgradeType":"lab"}`,
		"huge hours":       `{"category":"x","upgradeType":"lab","hours":3000000000000}`,
		"over a year":      `{"category":"x","upgradeType":"lab","hours":8760,"seconds":1}`,
		"not json":         `{`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := ts.do(newRequest(http.MethodPost, "/api/v1/reminders", body, "token"))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestGetReminders_ReconciledAndArranged(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	now := testNow.UnixMilli()
	pausedAt := now - 10_000
	ts.reminders.list = []*models.Reminder{
		{ID: "long", Category: "a", TotalSeconds: 600, RemainingSeconds: 600, IsActive: true, CreatedAt: now - 1000, EndTime: now + 500_000},
		{ID: "short", Category: "b", TotalSeconds: 600, RemainingSeconds: 600, IsActive: true, CreatedAt: now - 2000, EndTime: now + 30_000},
		{ID: "overdue", Category: "c", TotalSeconds: 60, RemainingSeconds: 60, IsActive: true, CreatedAt: now - 3000, EndTime: now - 1},
		{ID: "pinned", Category: "d", TotalSeconds: 600, RemainingSeconds: 0, PausedAt: &pausedAt, EndTime: pausedAt + 400_000, Pinned: true},
	}

	w := ts.do(newRequest(http.MethodGet, "/api/v1/reminders", "", "token"))
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]reminderResponse](t, w)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"overdue", "pinned", "short", "long"}, ids)
	assert.True(t, got[0].IsCompleted)
	assert.EqualValues(t, 400, got[1].RemainingSeconds)
	assert.EqualValues(t, 30, got[2].RemainingSeconds)

	w = ts.do(newRequest(http.MethodGet, "/api/v1/reminders?sort=sideways", "", "token"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReminder(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)
	now := testNow.UnixMilli()
	ts.reminders.list = []*models.Reminder{
		{ID: "r1", Category: "a", TotalSeconds: 60, RemainingSeconds: 60, IsActive: true, EndTime: now + 20_000},
	}

	w := ts.do(newRequest(http.MethodGet, "/api/v1/reminders/r1", "", "token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 20, decode[reminderResponse](t, w).RemainingSeconds)

	w = ts.do(newRequest(http.MethodGet, "/api/v1/reminders/missing", "", "token"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyAction(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		applyErr error
		code     int
	}{
		{name: "toggle", body: `{"action":"toggle"}`, code: http.StatusOK},
		{name: "update", body: `{"action":"update","title":"Lab"}`, code: http.StatusOK},
		{name: "unknown action", body: `{"action":"explode"}`, code: http.StatusBadRequest},
		{name: "missing action", body: `{}`, code: http.StatusBadRequest},
		{name: "fields on pin", body: `{"action":"pin","title":"x"}`, code: http.StatusBadRequest},
		{name: "timing field", body: `{"action":"update","remainingSeconds":5}`, code: http.StatusBadRequest},
		{name: "empty update", body: `{"action":"update"}`, code: http.StatusBadRequest},
		{name: "completed", body: `{"action":"toggle"}`, applyErr: timer.ErrCompleted, code: http.StatusConflict},
		{name: "not found", body: `{"action":"pin"}`, applyErr: services.ErrReminderNotFound, code: http.StatusNotFound},
		{name: "store failure", body: `{"action":"pin"}`, applyErr: errors.New("boom"), code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(nil)
			ts.login(t)
			ts.reminders.applyErr = tt.applyErr

			w := ts.do(newRequest(http.MethodPatch, "/api/v1/reminders/r1", tt.body, "token"))
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestApplyAction_PassesUpdateFields(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	w := ts.do(newRequest(http.MethodPatch, "/api/v1/reminders/r1",
		`{"action":"update","category":"pets","upgradeType":"pet"}`, "token"))
	require.Equal(t, http.StatusOK, w.Code)

	applied := ts.reminders.applied
	assert.Equal(t, "r1", applied.ID)
	assert.Equal(t, testUserID, applied.UserID)
	assert.Equal(t, timer.ActionUpdate, applied.Action.Kind)
	require.NotNil(t, applied.Action.Patch.Category)
	assert.Equal(t, "pets", *applied.Action.Patch.Category)
	assert.Nil(t, applied.Action.Patch.Title)
}

func TestDeleteReminder(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	w := ts.do(newRequest(http.MethodDelete, "/api/v1/reminders/r1", "", "token"))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(newRequest(http.MethodDelete, "/api/v1/reminders/r2", "", "token"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncReminders(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	w := ts.do(newRequest(http.MethodPost, "/api/v1/reminders/sync", "", "token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":[],"completed":[]}`, w.Body.String())

	title := "Walls"
	ts.reminders.sync = &services.SyncResult{
		Updated:   []services.RemainingUpdate{{ID: "a", RemainingSeconds: 42}},
		Completed: []services.CompletedReminder{{ID: "b", Title: &title, Category: "defense"}},
	}
	w = ts.do(newRequest(http.MethodPost, "/api/v1/reminders/sync", "", "token"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"updated":[{"id":"a","remainingSeconds":42}],"completed":[{"id":"b","title":"Walls","category":"defense"}]}`,
		w.Body.String())
}

func TestReorderReminders(t *testing.T) {
	ts := newTestServer(nil)
	ts.login(t)

	w := ts.do(newRequest(http.MethodPatch, "/api/v1/reminders/order",
		`{"orderUpdates":[{"id":"a","order":0},{"id":"b","order":1}]}`, "token"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"applied":1,"failed":["b"]}`, w.Body.String())
	assert.Equal(t, []timer.OrderUpdate{{ID: "a", Order: 0}, {ID: "b", Order: 1}}, ts.reminders.reordered)

	w = ts.do(newRequest(http.MethodPatch, "/api/v1/reminders/order",
		`{"orderUpdates":[{"id":"a","order":-1}]}`, "token"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(newRequest(http.MethodPatch, "/api/v1/reminders/order",
		`{"orderUpdates":[{"id":"a","order":2147483648}]}`, "token"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(NewRateLimiter(1, 2))
	ts.login(t)

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, ts.do(newRequest(http.MethodGet, "/api/v1/reminders", "", "token")).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_PerKeyBuckets(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 10))

	l := NewRateLimiter(1, 1)
	assert.True(t, l.Allow("a", testNow))
	assert.False(t, l.Allow("a", testNow))
	assert.True(t, l.Allow("b", testNow))
	assert.True(t, l.Allow("a", testNow.Add(time.Second)))

	// idle buckets are pruned
	later := testNow.Add(2 * limiterIdleTTL)
	assert.True(t, l.Allow("c", later))
	assert.NotContains(t, l.visitors, "b")
}
