package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveUpstream(method, endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, method+" "+endpoint+" "+outcome)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerTokenAndListEnvelope(t *testing.T) {
	var gotAuth string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		assert.Equal(t, "/api/v1/organization/users/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"data":        []model.User{{ID: "u1", Name: "Ada", Role: model.RoleStudent}},
			"currentPage": 2,
			"totalPages":  3,
			"totalCount":  21,
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1", time.Second).As("tok-123")
	page, err := c.ListUsers(context.Background(), UserQuery{
		Params: pagination.Params{Page: 2, Limit: 10, Search: "ad"},
		Role:   model.RoleStudent,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, []string{"student"}, gotQuery["userType"])
	assert.Equal(t, []string{"ad"}, gotQuery["search"])
	assert.NotContains(t, gotQuery, "organizationId")
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Meta.Page)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.Equal(t, 21, page.Meta.Total)
	assert.True(t, page.Meta.HasNext)
	assert.True(t, page.Meta.HasPrev)
}

func TestListEnvelopeWithPageAndTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []model.Course{{ID: "c1"}, {ID: "c2"}},
			"page":    1,
			"total":   2,
		})
	}))
	defer srv.Close()

	page, err := New(srv.URL, time.Second).ListCourses(context.Background(), pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNext)
}

func TestUnauthenticatedClientSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"token": "jwt", "user": model.User{ID: "u1", Role: model.RoleAdmin}},
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).Login(context.Background(), forms.Login{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
}

func TestLoginTopLevelToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   "jwt",
			"user":    model.User{ID: "u2", Role: model.RoleTutor},
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).Login(context.Background(), forms.Login{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "u2", res.User.ID)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		kind    Kind
		message string
	}{
		{name: "http with message", status: http.StatusBadRequest, body: map[string]any{"success": false, "message": "Class already has an active session"}, kind: KindHTTP, message: "Class already has an active session"},
		{name: "http with error field", status: http.StatusForbidden, body: map[string]any{"error": "forbidden"}, kind: KindHTTP, message: "forbidden"},
		{name: "http without body", status: http.StatusBadGateway, body: nil, kind: KindHTTP, message: "request failed: 502 Bad Gateway"},
		{name: "success false on 200", status: http.StatusOK, body: map[string]any{"success": false, "message": "Invalid code"}, kind: KindRejected, message: "Invalid code"},
		{name: "missing success", status: http.StatusOK, body: map[string]any{"data": []int{}}, kind: KindRejected, message: "request was not successful"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			}))
			defer srv.Close()

			c := New(srv.URL, time.Second)
			c.Observer = obs
			_, err := c.SignIn(context.Background(), forms.Redeem{Code: "ABC123"})
			require.Error(t, err)

			var ae *Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.status, ae.Status)
			assert.Equal(t, tt.message, Message(err))
			assert.Equal(t, []string{"POST /organization/attendance/signin " + tt.kind.String()}, obs.outcomes)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).ActiveSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.Equal(t, 0, StatusOf(err))
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).As("stale").Dashboard(context.Background(), model.RoleAdmin)
	assert.True(t, IsUnauthorized(err))
}

func TestRegenerateAndCloseRoutes(t *testing.T) {
	type call struct{ method, path, body string }
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b, _ := json.Marshal(body)
		calls = append(calls, call{r.Method, r.URL.Path, string(b)})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok", "data": model.AttendanceSession{ID: "s1"}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.RegenerateCode(context.Background(), "s1", forms.Regenerate{Direction: "signout"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Message)
	_, err = c.CloseSession(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, call{http.MethodPut, "/organization/attendance/s1", `{"regenerate":"signout"}`}, calls[0])
	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, "/organization/attendance/close/s1", calls[1].path)
}

func TestDashboardPathPerRole(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": model.Dashboard{TotalStudents: 4}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	for _, role := range []model.Role{model.RoleAdmin, model.RoleTutor, model.RoleStudent} {
		d, err := c.Dashboard(context.Background(), role)
		require.NoError(t, err)
		assert.Equal(t, 4, d.TotalStudents)
	}
	assert.Equal(t, []string{"/organization/users/dashboard", "/organization/users/dashboard/tutor", "/organization/users/dashboard/student"}, paths)
}
