package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduportal/internal/httpmiddleware"
	"eduportal/internal/model"
	"eduportal/internal/session"
)

const (
	testKey    = "test-key"
	testIssuer = "eduportal-test"
)

func TestIssueAndParse(t *testing.T) {
	tok, exp, err := Issue("s1", "admin", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(tok, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)

	_, err = Parse(tok, "other-key", testIssuer)
	assert.Error(t, err)
	_, err = Parse(tok, testKey, "someone-else")
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	tok, _, err := Issue("s1", "admin", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(tok, testKey, testIssuer)
	assert.Error(t, err)
}

func router(mgr *session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", Required(mgr, testKey, testIssuer))
	g.GET("/me", func(c *gin.Context) {
		s, _ := Current(c)
		c.JSON(http.StatusOK, gin.H{"id": s.User.ID})
	})
	g.GET("/admin", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRequiredMiddleware(t *testing.T) {
	mgr := session.NewManager(session.NewMemoryStore(), time.Hour)
	s, err := mgr.Begin(context.Background(), model.User{ID: "u1", Role: model.RoleTutor}, "upstream")
	require.NoError(t, err)
	tok, _, err := Issue(s.ID, string(s.User.Role), testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	r := router(mgr)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, mgr.End(context.Background(), s.ID))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueRejectsEmptyKey(t *testing.T) {
	_, _, err := Issue("s1", "admin", testIssuer, "", time.Hour)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestRateKeyIgnoresUnverifiedTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpmiddleware.NewSimpleTokenBucket(2, 2).GinMiddleware(RateKey(testKey, testIssuer)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.7:4000"
		req.Header.Set("Authorization", fmt.Sprintf("Bearer junk%d", i))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusNoContent {
			passed++
		}
	}
	assert.Equal(t, 2, passed)

	tok, _, err := Issue("s9", "tutor", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:4000"
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	assert.Equal(t, "sess:s9", RateKey(testKey, testIssuer)(c))
}
