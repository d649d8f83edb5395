package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"room-reservation/internal/data/entity"
	"room-reservation/internal/testfixtures"
	"room-reservation/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type caller struct {
	userID int64
	role   string
	called bool
}

func (c *caller) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.userID, _ = utils.GetUserIDFromContext(r.Context())
		c.role, _ = utils.GetRoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/calendar", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthSession(t *testing.T) {
	store := testfixtures.NewStore()
	admin := store.AddUser("admin", entity.RoleAdmin)
	valid := store.AddSession(admin.ID, time.Now().Add(time.Hour))
	expired := store.AddSession(admin.ID, time.Now().Add(-time.Hour))
	orphan := store.AddSession(999, time.Now().Add(time.Hour))
	repo := store.Repository()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid.Token.String(), http.StatusUnauthorized},
		{"not a uuid", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired.Token.String(), http.StatusUnauthorized},
		{"unknown user", "Bearer " + orphan.Token.String(), http.StatusUnauthorized},
		{"valid", "Bearer " + valid.Token.String(), http.StatusNoContent},
		{"lowercase scheme", "bearer " + valid.Token.String(), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &caller{}
			rec := serve(AuthSession(repo.Session, repo.User, zap.NewNop())(c.handler()), tc.header)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusNoContent, c.called)
		})
	}

	c := &caller{}
	serve(AuthSession(repo.Session, repo.User, zap.NewNop())(c.handler()), "Bearer "+valid.Token.String())
	assert.Equal(t, admin.ID, c.userID)
	assert.Equal(t, "admin", c.role)
}

func TestAuthSession_StorageFailure(t *testing.T) {
	store := testfixtures.NewStore()
	user := store.AddUser("alice", entity.RoleUser)
	sess := store.AddSession(user.ID, time.Now().Add(time.Hour))
	store.FailAfter("session.find", 0, errors.New("connection refused"))
	repo := store.Repository()

	rec := serve(AuthSession(repo.Session, repo.User, zap.NewNop())(http.NotFoundHandler()), "Bearer "+sess.Token.String())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestOptionalAuthAndRequireAuth(t *testing.T) {
	store := testfixtures.NewStore()
	user := store.AddUser("alice", entity.RoleUser)
	sess := store.AddSession(user.ID, time.Now().Add(time.Hour))
	repo := store.Repository()

	c := &caller{}
	rec := serve(OptionalAuth(repo.Session, repo.User, zap.NewNop())(c.handler()), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, c.userID)

	rec = serve(OptionalAuth(repo.Session, repo.User, zap.NewNop())(c.handler()), "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	chain := OptionalAuth(repo.Session, repo.User, zap.NewNop())(RequireAuth()(c.handler()))
	rec = serve(chain, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c = &caller{}
	chain = OptionalAuth(repo.Session, repo.User, zap.NewNop())(RequireAuth()(c.handler()))
	rec = serve(chain, "Bearer "+sess.Token.String())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, user.ID, c.userID)
}

func TestAdmin(t *testing.T) {
	store := testfixtures.NewStore()
	user := store.AddUser("alice", entity.RoleUser)
	admin := store.AddUser("root", entity.RoleAdmin)
	userSess := store.AddSession(user.ID, time.Now().Add(time.Hour))
	adminSess := store.AddSession(admin.ID, time.Now().Add(time.Hour))
	repo := store.Repository()

	chain := func(c *caller) http.Handler {
		return AuthSession(repo.Session, repo.User, zap.NewNop())(Admin(zap.NewNop())(c.handler()))
	}

	rec := serve(chain(&caller{}), "Bearer "+userSess.Token.String())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(chain(&caller{}), "Bearer "+adminSess.Token.String())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(Admin(zap.NewNop())(http.NotFoundHandler()), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecover(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recover(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":false,"message":"Internal server error"}`, rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("PANIC recovered").Len())
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseConflict(w, "taken", nil)
	}))

	serve(h, "")
	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.EqualValues(t, http.StatusConflict, entries[0].ContextMap()["status"])
	assert.EqualValues(t, "/api/calendar", entries[0].ContextMap()["path"])
}

func TestCORS(t *testing.T) {
	next := &caller{}
	h := CORS()(next.handler())

	preflight := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/calendar", nil)
		req.Header.Set("Origin", "https://rooms.example.com")
		req.Header.Set("Access-Control-Request-Method", method)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, next.called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPatch, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	rec = preflight("TRACE")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, next.called)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?room_id=1", nil)
	req.Header.Set("Origin", "https://rooms.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, next.called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
