package console_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/portal/internal/apiclient"
	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/console"
	"github.com/volunteerhub/portal/internal/guard"
	"github.com/volunteerhub/portal/internal/platform/httpx"
	"github.com/volunteerhub/portal/internal/platform/storage"
	"github.com/volunteerhub/portal/internal/session"
	_ "github.com/volunteerhub/portal/testing"
)

type backend struct {
	server       *httptest.Server
	rejectToken  atomic.Bool
	joined       atomic.Int32
	lastReview   atomic.Value
	created      atomic.Int32
	lastDecision atomic.Value
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	r := chi.NewRouter()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
	authorized := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if b.rejectToken.Load() || r.Header.Get("Authorization") == "" {
				write(w, http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`)
				return
			}
			next(w, r)
		}
	}
	r.Post("/api/accounts/volunteerLogin/", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"user":{"id":7,"username":"alice","Character":1},"access":"tok1","refresh":"ref1"}`)
	})
	r.Post("/api/accounts/npoLogin/", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusBadRequest, `{"error":"Character Type wrong!"}`)
	})
	r.Post("/api/accounts/adminLogin/", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"user":{"id":8,"username":"bob","Character":2},"access":"tok2","refresh":"ref2"}`)
	})
	r.Post("/api/accounts/volunteerRegister/", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusCreated, `{"user":{"id":9,"username":"carol","Character":1},"access":"tok3","refresh":"ref3"}`)
	})
	r.Get("/api/accounts/findUserByUsername/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("username")
		write(w, http.StatusOK, `{"username":"`+name+`","avaliable":`+map[bool]string{true: "false", false: "true"}[name == "alice"]+`}`)
	})
	r.Get("/api/users/profile/", authorized(func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"id":7,"username":"alice","Character":1,"is_active":true}`)
	}))
	r.Get("/api/activities/activities/", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"count":1,"results":[{"id":3,"title":"Beach cleanup","location":"Pier 4","max_participants":20,"status":"published"}]}`)
	})
	r.Post("/api/activities/participants/", authorized(func(w http.ResponseWriter, r *http.Request) {
		b.joined.Add(1)
		write(w, http.StatusCreated, `{"id":1,"activity":3,"status":"pending"}`)
	}))
	r.Patch("/api/activities/activities/{id}/approve/", authorized(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.lastReview.Store(body)
		write(w, http.StatusOK, `{"id":3,"title":"Beach cleanup","status":"published","approval_status":"approved"}`)
	}))
	r.Get("/api/activities/categories/", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `[{"id":1,"name":"Environment"}]`)
	})
	r.Post("/api/activities/activities/", authorized(func(w http.ResponseWriter, r *http.Request) {
		b.created.Add(1)
		write(w, http.StatusCreated, `{"id":9,"title":"Park planting","max_participants":12,"status":"pending_approval","approval_status":"pending"}`)
	}))
	r.Get("/api/activities/participants/", authorized(func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"count":1,"results":[{"id":40,"activity":`+r.URL.Query().Get("activity")+`,"user_name":"alice","status":"pending"}]}`)
	}))
	r.Patch("/api/activities/participants/{id}/approve/", authorized(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.lastDecision.Store(body)
		write(w, http.StatusOK, `{"id":40,"activity":9,"status":"`+fmt.Sprint(body["status"])+`"}`)
	}))
	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

func newFrontend(t *testing.T, b *backend, backing storage.Storage, ns session.Namespace, table *guard.Table) (http.Handler, *session.Store) {
	t.Helper()
	store := session.NewStore(ns, backing, nil)
	client, err := apiclient.New(store, apiclient.Options{BaseURL: b.server.URL + "/api"})
	require.NoError(t, err)
	h := console.NewHandler(console.HandlerParams{
		Store:   store,
		Service: auth.NewService(client, store, nil),
		Client:  client,
		Table:   table,
	})
	r := chi.NewRouter()
	r.Route(table.Prefix+"/api", h.MountAPI)
	if table.Prefix == "" {
		h.MountPages(r)
	} else {
		r.Route(table.Prefix, h.MountPages)
	}
	return r, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Origin", "http://example.com")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func problemOf(t *testing.T, res *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var p httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &p))
	return p
}

func TestPortalLoginSessionLogout(t *testing.T) {
	b := newBackend(t)
	h, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)
	ctx := context.Background()

	res := do(t, h, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"logged_in":false,"namespace":"user"}`, res.Body.String())

	res = do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "alice", "password": "Secret#123", "role": "volunteer"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var view struct {
		LoggedIn  bool   `json:"logged_in"`
		Home      string `json:"home"`
		RoleLabel string `json:"role_label"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	require.True(t, view.LoggedIn)
	require.Equal(t, "/home/volunteer", view.Home)
	require.Equal(t, "Volunteer", view.RoleLabel)
	require.True(t, store.IsLoggedIn(ctx))

	res = do(t, h, http.MethodPost, "/api/session/logout", nil)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.False(t, store.IsLoggedIn(ctx))
}

func TestPortalLoginErrorsMapToProblems(t *testing.T) {
	b := newBackend(t)
	h, _ := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)

	res := do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "12345", "password": "x", "role": "volunteer"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	p := problemOf(t, res)
	require.Equal(t, "validation_error", p.Kind)
	require.Contains(t, p.Fields, "username")

	res = do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "npo1", "password": "x", "role": "npo"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	p = problemOf(t, res)
	require.Equal(t, "network_or_server_error", p.Kind)
	require.Equal(t, "Character Type wrong!", p.Detail)

	res = do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "root", "password": "x", "role": "admin"})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "root", "password": "x", "role": "staff"})
	require.Equal(t, http.StatusBadRequest, res.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewBufferString("{"))
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsoleRejectsNonAdminLogin(t *testing.T) {
	b := newBackend(t)
	h, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceAdmin, guard.Console)

	res := do(t, h, http.MethodPost, "/admin/api/session/login", map[string]string{"username": "bob", "password": "x"})
	require.Equal(t, http.StatusForbidden, res.Code)
	p := problemOf(t, res)
	require.Equal(t, "role_mismatch", p.Kind)
	require.Equal(t, "Only administrators can sign in to the console", p.Detail)
	require.False(t, store.IsLoggedIn(context.Background()))
}

func TestUnauthorizedAnswerClearsServerSession(t *testing.T) {
	b := newBackend(t)
	h, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)
	ctx := context.Background()

	res := do(t, h, http.MethodPost, "/api/session/login", map[string]string{"username": "alice", "password": "Secret#123", "role": "volunteer"})
	require.Equal(t, http.StatusOK, res.Code)

	res = do(t, h, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, res.Code)

	b.rejectToken.Store(true)
	res = do(t, h, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	p := problemOf(t, res)
	require.Equal(t, "auth_rejected", p.Kind)
	require.Equal(t, "Your session has expired, please sign in again", p.Detail)
	require.False(t, store.IsLoggedIn(ctx))

	res = do(t, h, http.MethodGet, "/my-activity/volunteer", nil)
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/login/volunteer", res.Header().Get("Location"))
}

func TestRegisterAndUsernameCheck(t *testing.T) {
	b := newBackend(t)
	h, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)

	res := do(t, h, http.MethodGet, "/api/accounts/username?username=alice", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"username":"alice","available":false,"message":"Username alice is already taken"}`, res.Body.String())

	res = do(t, h, http.MethodGet, "/api/accounts/username?username=carol", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"available":true`)

	res = do(t, h, http.MethodPost, "/api/session/register", map[string]string{"username": "carol", "password": "weak", "role": "volunteer"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, problemOf(t, res).Fields, "password")

	res = do(t, h, http.MethodPost, "/api/session/register", map[string]string{"username": "carol", "password": "Secret#123", "role": "volunteer"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	current, ok := store.CurrentPrincipal(context.Background())
	require.True(t, ok)
	require.Equal(t, "carol", current.Username)
}

func TestJoinRequiresVolunteerAndReviewIsConsoleOnly(t *testing.T) {
	b := newBackend(t)
	backing := storage.NewMemory()
	portal, _ := newFrontend(t, b, backing, session.NamespaceUser, guard.Portal)
	admin, adminStore := newFrontend(t, b, backing, session.NamespaceAdmin, guard.Console)
	ctx := context.Background()

	res := do(t, portal, http.MethodPost, "/api/activities/3/join", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusForbidden, res.Code)

	res = do(t, portal, http.MethodPost, "/api/session/login", map[string]string{"username": "alice", "password": "Secret#123", "role": "volunteer"})
	require.Equal(t, http.StatusOK, res.Code)
	res = do(t, portal, http.MethodPost, "/api/activities/3/join", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	require.Equal(t, int32(1), b.joined.Load())

	res = do(t, portal, http.MethodPost, "/api/activities/3/review", map[string]string{"approval_status": "approved"})
	require.Equal(t, http.StatusNotFound, res.Code)

	require.NoError(t, adminStore.SetAuth(ctx, auth.Principal{ID: 1, Username: "root", Role: auth.RoleAdmin}, auth.TokenPair{Access: "adm", Refresh: "adm-r"}))
	res = do(t, admin, http.MethodPost, "/admin/api/activities/3/review", map[string]string{"approval_status": "maybe"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	res = do(t, admin, http.MethodPost, "/admin/api/activities/3/review", map[string]string{"approval_status": "rejected"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	res = do(t, admin, http.MethodPost, "/admin/api/activities/3/review", map[string]string{"approval_status": "approved", "admin_notes": "ok"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	review, _ := b.lastReview.Load().(map[string]any)
	require.Equal(t, "approved", review["approval_status"])

	res = do(t, admin, http.MethodGet, "/admin/api/activities/abc", nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPagesFollowGuard(t *testing.T) {
	b := newBackend(t)
	backing := storage.NewMemory()
	portal, userStore := newFrontend(t, b, backing, session.NamespaceUser, guard.Portal)
	admin, _ := newFrontend(t, b, backing, session.NamespaceAdmin, guard.Console)

	res := do(t, portal, http.MethodGet, "/home/volunteer", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"route":"publicHome"`)

	res = do(t, portal, http.MethodGet, "/home/admin", nil)
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/404", res.Header().Get("Location"))

	require.NoError(t, userStore.SetAuth(context.Background(), auth.Principal{ID: 7, Username: "alice", Role: auth.RoleVolunteer}, auth.TokenPair{Access: "a", Refresh: "r"}))
	res = do(t, portal, http.MethodGet, "/new-activity/npo", nil)
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/home/volunteer", res.Header().Get("Location"))

	res = do(t, admin, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusFound, res.Code)
	require.Equal(t, "/admin/login", res.Header().Get("Location"))

	res = do(t, admin, http.MethodGet, "/admin/login", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"frontend":"console"`)
}

func TestListActivitiesValidatesPage(t *testing.T) {
	b := newBackend(t)
	h, _ := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)

	res := do(t, h, http.MethodGet, "/api/activities?page=0", nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, h, http.MethodGet, "/api/activities?page=1&search=beach", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var page apiclient.ActivityPage
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(t, 1, page.Count)
	require.Equal(t, "Beach cleanup", page.Results[0].Title)
}

func TestCrossSiteWritesAreRejected(t *testing.T) {
	b := newBackend(t)
	admin, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceAdmin, guard.Console)
	ctx := context.Background()
	require.NoError(t, store.SetAuth(ctx, auth.Principal{ID: 1, Username: "root", Role: auth.RoleAdmin}, auth.TokenPair{Access: "adm", Refresh: "adm-r"}))

	send := func(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		res := httptest.NewRecorder()
		admin.ServeHTTP(res, req)
		return res
	}
	review := `{"approval_status":"approved","rejection_reason":"="}`

	res := send(http.MethodPost, "/admin/api/activities/3/review", review, map[string]string{
		"Content-Type": "text/plain",
		"Origin":       "https://evil.example",
	})
	require.Equal(t, http.StatusForbidden, res.Code)

	res = send(http.MethodPost, "/admin/api/activities/3/review", review, map[string]string{
		"Content-Type": "text/plain",
		"Origin":       "http://example.com",
	})
	require.Equal(t, http.StatusUnsupportedMediaType, res.Code)

	res = send(http.MethodPost, "/admin/api/activities/3/review", review, map[string]string{
		"Content-Type":   "application/json",
		"Origin":         "http://example.com",
		"Sec-Fetch-Site": "cross-site",
	})
	require.Equal(t, http.StatusForbidden, res.Code)

	res = send(http.MethodPost, "/admin/api/activities/3/review", review, map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Nil(t, b.lastReview.Load())

	res = send(http.MethodPost, "/admin/api/session/logout", "", map[string]string{"Origin": "https://evil.example"})
	require.Equal(t, http.StatusForbidden, res.Code)
	res = send(http.MethodPost, "/admin/api/session/logout", "", map[string]string{"Referer": "https://evil.example/page"})
	require.Equal(t, http.StatusForbidden, res.Code)
	require.True(t, store.IsLoggedIn(ctx))

	res = send(http.MethodGet, "/admin/api/session", "", map[string]string{"Origin": "https://evil.example"})
	require.Equal(t, http.StatusOK, res.Code)

	res = send(http.MethodPost, "/admin/api/activities/3/review", review, map[string]string{
		"Content-Type":   "application/json; charset=utf-8",
		"Origin":         "http://example.com",
		"Sec-Fetch-Site": "same-origin",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = send(http.MethodPost, "/admin/api/session/logout", "", map[string]string{"Referer": "http://example.com/admin/dashboard"})
	require.Equal(t, http.StatusNoContent, res.Code)
	require.False(t, store.IsLoggedIn(ctx))
}

func TestSessionReportsAccessExpiry(t *testing.T) {
	b := newBackend(t)
	h, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)
	ctx := context.Background()
	alice := auth.Principal{ID: 7, Username: "alice", Role: auth.RoleVolunteer}

	exp := time.Date(2031, time.March, 4, 5, 6, 7, 0, time.UTC)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(ctx, alice, auth.TokenPair{Access: access, Refresh: "r"}))

	var view struct {
		AccessExpiresAt *time.Time `json:"access_expires_at"`
	}
	res := do(t, h, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	require.NotNil(t, view.AccessExpiresAt)
	require.True(t, exp.Equal(*view.AccessExpiresAt))

	require.NoError(t, store.SetAuth(ctx, alice, auth.TokenPair{Access: "opaque", Refresh: "r"}))
	res = do(t, h, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotContains(t, res.Body.String(), "access_expires_at")
}

func TestOrganizerRoutes(t *testing.T) {
	b := newBackend(t)
	h, store := newFrontend(t, b, storage.NewMemory(), session.NamespaceUser, guard.Portal)
	admin, _ := newFrontend(t, b, storage.NewMemory(), session.NamespaceAdmin, guard.Console)
	ctx := context.Background()

	res := do(t, h, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `[{"id":1,"name":"Environment"}]`, res.Body.String())

	start := time.Date(2030, time.May, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	activity := map[string]any{
		"title": "Park planting", "description": "Trees", "category": 1, "location": "North park",
		"start_date": start, "end_date": end, "max_participants": 12,
	}

	require.NoError(t, store.SetAuth(ctx, auth.Principal{ID: 7, Username: "alice", Role: auth.RoleVolunteer}, auth.TokenPair{Access: "a", Refresh: "r"}))
	res = do(t, h, http.MethodPost, "/api/activities", activity)
	require.Equal(t, http.StatusForbidden, res.Code)
	res = do(t, h, http.MethodGet, "/api/activities/9/participants", nil)
	require.Equal(t, http.StatusForbidden, res.Code)
	res = do(t, h, http.MethodPost, "/api/participants/40/approve", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Zero(t, b.created.Load())

	require.NoError(t, store.SetAuth(ctx, auth.Principal{ID: 8, Username: "greenleaf", Role: auth.RoleOrganizer}, auth.TokenPair{Access: "n", Refresh: "r"}))
	invalid := map[string]any{"title": "", "category": 0, "location": "North park", "start_date": end, "end_date": start, "max_participants": 0}
	res = do(t, h, http.MethodPost, "/api/activities", invalid)
	require.Equal(t, http.StatusBadRequest, res.Code)
	p := problemOf(t, res)
	require.Contains(t, p.Fields, "title")
	require.Contains(t, p.Fields, "category")
	require.Contains(t, p.Fields, "max_participants")

	backwards := map[string]any{"title": "Park planting", "category": 1, "location": "North park", "start_date": end, "end_date": start, "max_participants": 12}
	res = do(t, h, http.MethodPost, "/api/activities", backwards)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, problemOf(t, res).Fields, "end_date")
	require.Zero(t, b.created.Load())

	res = do(t, h, http.MethodPost, "/api/activities", activity)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	require.Equal(t, int32(1), b.created.Load())
	require.Contains(t, res.Body.String(), `"approval_status":"pending"`)

	res = do(t, h, http.MethodGet, "/api/activities/9/participants", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var participants []apiclient.Participant
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &participants))
	require.Len(t, participants, 1)
	require.Equal(t, int64(9), participants[0].Activity)

	res = do(t, h, http.MethodPost, "/api/participants/40/approve", map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, problemOf(t, res).Fields, "rejection_reason")

	res = do(t, h, http.MethodPost, "/api/participants/40/approve", map[string]string{"status": "approved", "organizer_notes": "welcome"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	decision, _ := b.lastDecision.Load().(map[string]any)
	require.Equal(t, "approved", decision["status"])
	require.Equal(t, "welcome", decision["organizer_notes"])

	res = do(t, admin, http.MethodPost, "/admin/api/activities", activity)
	require.Equal(t, http.StatusMethodNotAllowed, res.Code)
}
