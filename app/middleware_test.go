package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neighborly/apperr"
	"neighborly/config"
	"neighborly/models"
	"neighborly/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeUsers map[string]*models.User

func (f fakeUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

type authFixture struct {
	router   *gin.Engine
	tokens   *session.Tokens
	sessions *session.AppSessionStore
	rdb      *redis.Client
	admin    *models.User
	member   *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &authFixture{
		tokens:   session.NewTokens(testSecret, time.Hour),
		sessions: session.NewAppSessionStore(rdb, time.Hour),
		rdb:      rdb,
		admin:    &models.User{ID: uuid.NewString(), Username: "admin@example.com", IsAdmin: true},
		member:   &models.User{ID: uuid.NewString(), Username: "ana@example.com"},
	}
	users := fakeUsers{f.admin.ID: f.admin, f.member.ID: f.member}

	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	auth := AuthRequired(f.tokens, f.sessions, users)
	r.GET("/me", auth, func(c *gin.Context) {
		c.JSON(http.StatusOK, H{"userID": c.GetString("userID"), "isAdmin": c.GetBool("isAdmin")})
	})
	r.GET("/admin", auth, AdminOnly(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	f.router = r
	return f
}

func (f *authFixture) login(t *testing.T, u *models.User) string {
	t.Helper()
	sid := uuid.NewString()
	require.NoError(t, f.sessions.Create(context.Background(), sid, u.ID))
	raw, err := f.tokens.Issue(sid, u.ID, time.Now())
	require.NoError(t, err)
	return raw
}

func (f *authFixture) get(path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAcceptsCookieAndBearer(t *testing.T) {
	f := newAuthFixture(t)
	raw := f.login(t, f.member)

	w := f.get("/me", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AppSessionCookie, Value: raw}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), f.member.ID)

	w = f.get("/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiredRejects(t *testing.T) {
	f := newAuthFixture(t)

	w := f.get("/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, w.Body.String())

	w = f.get("/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// signed but the session was revoked
	raw := f.login(t, f.member)
	require.NoError(t, f.sessions.RevokeAllForUser(context.Background(), f.member.ID))
	w = f.get("/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// live session whose user no longer exists
	ghost := &models.User{ID: uuid.NewString()}
	raw = f.login(t, ghost)
	w = f.get("/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsSessionOfAnotherUser(t *testing.T) {
	f := newAuthFixture(t)
	sid := uuid.NewString()
	require.NoError(t, f.sessions.Create(context.Background(), sid, f.member.ID))
	raw, err := f.tokens.Issue(sid, f.admin.ID, time.Now())
	require.NoError(t, err)

	w := f.get("/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnly(t *testing.T) {
	f := newAuthFixture(t)

	member := f.login(t, f.member)
	w := f.get("/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+member) })
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := f.login(t, f.admin)
	w = f.get("/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+admin) })
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPaymentSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	build := func(secret string) *gin.Engine {
		r := gin.New()
		r.Use(ErrorHandler(zap.NewNop()))
		r.POST("/hook", PaymentSecret(secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}
	call := func(r *gin.Engine, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		if header != "" {
			req.Header.Set("X-Payment-Secret", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	r := build("s3cret")
	assert.Equal(t, http.StatusNoContent, call(r, "s3cret"))
	assert.Equal(t, http.StatusUnauthorized, call(r, "wrong"))
	assert.Equal(t, http.StatusUnauthorized, call(r, ""))

	assert.Equal(t, http.StatusUnauthorized, call(build(""), ""), "empty secret disables the route")
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()), ErrorHandler(zap.NewNop()))
	r.GET("/conflict", func(c *gin.Context) { _ = c.Error(apperr.Conflict("Item is not available")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("pq: connection refused")) })
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/conflict", http.StatusBadRequest, `{"success":false,"message":"Item is not available"}`},
		{"/boom", http.StatusInternalServerError, `{"success":false,"message":"Internal server error"}`},
		{"/panic", http.StatusInternalServerError, `{"success":false,"message":"Internal server error"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, tc.path)
		assert.JSONEq(t, tc.body, w.Body.String(), tc.path)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDContextKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

type countingToucher struct{ n int }

func (c *countingToucher) TouchUserSeen(context.Context, string) error {
	c.n++
	return nil
}

func TestTouchLastSeenThrottles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	toucher := &countingToucher{}
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "u1"); c.Next() })
	r.Use(TouchLastSeen(toucher, rdb, time.Minute, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, 1, toucher.n)

	mr.FastForward(2 * time.Minute)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 2, toucher.n)
}

type recordingPromoter struct{ got []string }

func (p *recordingPromoter) PromoteAdmins(_ context.Context, usernames []string) (int64, error) {
	p.got = usernames
	return int64(len(usernames)), nil
}

func TestSyncAdmins(t *testing.T) {
	p := &recordingPromoter{}
	SyncAdmins(context.Background(), config.Config{}, p, zap.NewNop())
	assert.Nil(t, p.got)

	SyncAdmins(context.Background(), config.Config{AdminEmails: []string{"root@example.com"}}, p, zap.NewNop())
	assert.Equal(t, []string{"root@example.com"}, p.got)
}
