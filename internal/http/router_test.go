package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/projecthub/internal/association"
	"github.com/geocoder89/projecthub/internal/auth"
	"github.com/geocoder89/projecthub/internal/config"
	apphttp "github.com/geocoder89/projecthub/internal/http"
	"github.com/geocoder89/projecthub/internal/observability"
	"github.com/geocoder89/projecthub/internal/repo/memory"
	"github.com/geocoder89/projecthub/internal/seed"
	"github.com/geocoder89/projecthub/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const seedPassword = "demo-password"

type testApp struct {
	router http.Handler
	store  *memory.Store
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	roster := association.NewManager(store, log, prom)
	creds := auth.NewService(store, session.NewMemoryStore(), auth.NewManager("test-secret-key-0123456789"), auth.Options{
		SessionTTL:  time.Hour,
		RememberTTL: 24 * time.Hour,
	}, log, prom)

	seeder := seed.New(store, roster, seedPassword, log)
	if err := seeder.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := seeder.EnsureModerator(context.Background(), seed.Moderator{
		Email: "mod@example.com", Password: seedPassword, FirstName: "Mo", LastName: "Derator",
	}); err != nil {
		t.Fatalf("moderator: %v", err)
	}

	cfg := config.Config{
		Env:                 "test",
		AuthRateLimit:       1000,
		AuthRateLimitWindow: time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	router := apphttp.NewRouter(log, apphttp.Deps{
		Config:      cfg,
		Store:       store,
		Credentials: creds,
		Roster:      roster,
		Prom:        prom,
		Gatherer:    reg,
	})

	return testApp{router: router, store: store}
}

func (a testApp) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a testApp) login(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+seedPassword+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Session.Token == "" {
		t.Fatalf("no token in %s", w.Body.String())
	}
	return resp.Session.Token
}

func mustDecode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
}

func TestProtectedRouteOffersLoginWithNext(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/me", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", w.Code)
	}

	var body struct {
		Error struct {
			LoginURL string `json:"loginUrl"`
		} `json:"error"`
	}
	mustDecode(t, w, &body)
	if body.Error.LoginURL != "/auth/login?next=%2Fme" {
		t.Fatalf("loginUrl = %q", body.Error.LoginURL)
	}

	// logging in with that next echoes it back
	w = app.do(t, http.MethodPost, body.Error.LoginURL, "", `{"email":"dan@gmail.com","password":"`+seedPassword+`"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"redirect":"/me"`) {
		t.Fatalf("login got %d %s", w.Code, w.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, "dan@gmail.com")

	w := app.do(t, http.MethodGet, "/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Projects []struct {
			Name string `json:"name"`
		} `json:"projects"`
	}
	mustDecode(t, w, &me)
	if me.User.Email != "dan@gmail.com" || len(me.Projects) != 1 {
		t.Fatalf("unexpected profile %+v", me)
	}
	if strings.Contains(w.Body.String(), "PasswordHash") || strings.Contains(w.Body.String(), "$2a$") {
		t.Fatalf("hash leaked: %s", w.Body.String())
	}

	if w := app.do(t, http.MethodPost, "/auth/logout", token, ""); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/me", token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: %d", w.Code)
	}
	if w := app.do(t, http.MethodPost, "/auth/logout", token, ""); w.Code != http.StatusNoContent {
		t.Fatalf("second logout: %d", w.Code)
	}
}

func TestRegisterThenUseSession(t *testing.T) {
	app := newTestApp(t)

	skills := app.do(t, http.MethodGet, "/skills", "", "")
	var list struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	mustDecode(t, skills, &list)
	if len(list.Items) != 4 {
		t.Fatalf("want 4 seeded skills, got %d", len(list.Items))
	}
	sid := list.Items[0].ID

	body := `{"email":"new@example.com","password":"longpassword","firstName":"New","lastName":"Person",
		"skills":[{"skillId":"` + sid + `","proficiency":1},{"skillId":"` + sid + `","proficiency":2},{"skillId":"` + sid + `","proficiency":3}]}`

	w := app.do(t, http.MethodPost, "/auth/register", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var reg struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Session struct {
			UserID string `json:"userId"`
			Token  string `json:"token"`
		} `json:"session"`
	}
	mustDecode(t, w, &reg)
	if reg.Session.UserID != reg.User.ID {
		t.Fatalf("session bound to %q, user is %q", reg.Session.UserID, reg.User.ID)
	}

	if w := app.do(t, http.MethodPost, "/auth/register", "", body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", w.Code)
	}

	// set slot 2 only
	w = app.do(t, http.MethodPut, "/me/skills/2", reg.Session.Token, `{"skillId":"`+list.Items[1].ID+`","proficiency":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set skill: %d %s", w.Code, w.Body.String())
	}
	var u struct {
		Skills []struct {
			SkillID     string `json:"skillId"`
			Proficiency int    `json:"proficiency"`
		} `json:"skills"`
	}
	mustDecode(t, w, &u)
	if u.Skills[1].SkillID != list.Items[1].ID || u.Skills[1].Proficiency != 4 || u.Skills[0].Proficiency != 1 || u.Skills[2].Proficiency != 3 {
		t.Fatalf("unexpected slots %+v", u.Skills)
	}

	if w := app.do(t, http.MethodPut, "/me/skills/4", reg.Session.Token, `{"skillId":"`+sid+`","proficiency":4}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("slot 4: %d", w.Code)
	}
}

func TestMembershipFlow(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	token := app.login(t, "jeff@gmail.com")

	mobile, err := app.store.GetProjectByName(ctx, "Anyone looking to get started with mobile development?")
	if err != nil {
		t.Fatal(err)
	}

	path := "/projects/" + mobile.ID + "/members"
	if w := app.do(t, http.MethodPost, path, token, ""); w.Code != http.StatusCreated {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}
	if w := app.do(t, http.MethodPost, path, token, ""); w.Code != http.StatusOK {
		t.Fatalf("rejoin: %d", w.Code)
	}

	got, _ := app.store.GetProject(ctx, mobile.ID)
	if len(got.Members) != 2 {
		t.Fatalf("want 2 members, got %v", got.Members)
	}

	jw, _ := app.store.GetUserByEmail(ctx, "jw@gmail.com")
	if w := app.do(t, http.MethodDelete, path+"/"+jw.ID, token, ""); w.Code != http.StatusForbidden {
		t.Fatalf("kick as member: %d", w.Code)
	}

	jeff, _ := app.store.GetUserByEmail(ctx, "jeff@gmail.com")
	if w := app.do(t, http.MethodDelete, path+"/"+jeff.ID, token, ""); w.Code != http.StatusOK {
		t.Fatalf("leave: %d", w.Code)
	}

	w := app.do(t, http.MethodGet, "/projects/"+mobile.ID, "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"team"`) {
		t.Fatalf("get project: %d %s", w.Code, w.Body.String())
	}
}

func TestModeratorOnlyRoutes(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	member := app.login(t, "dan@gmail.com")
	mod := app.login(t, "mod@example.com")

	react, _ := app.store.GetProjectByName(ctx, "Lets make a React App!!!")

	if w := app.do(t, http.MethodPost, "/fields", member, `{"name":"Data","description":"numbers"}`); w.Code != http.StatusForbidden {
		t.Fatalf("member create field: %d", w.Code)
	}
	if w := app.do(t, http.MethodPost, "/fields", mod, `{"name":"Data","description":"numbers"}`); w.Code != http.StatusCreated {
		t.Fatalf("moderator create field: %d %s", w.Code, w.Body.String())
	}

	modUser, _ := app.store.GetUserByEmail(ctx, "mod@example.com")
	w := app.do(t, http.MethodPost, "/projects/"+react.ID+"/members/bulk", mod, `{"userIds":["`+modUser.ID+`","ghost"]}`)
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("bulk: %d %s", w.Code, w.Body.String())
	}

	if w := app.do(t, http.MethodDelete, "/projects/"+react.ID, member, ""); w.Code != http.StatusForbidden {
		t.Fatalf("member delete: %d", w.Code)
	}
	if w := app.do(t, http.MethodDelete, "/projects/"+react.ID, mod, ""); w.Code != http.StatusNoContent {
		t.Fatalf("moderator delete: %d", w.Code)
	}

	projects, _ := app.store.ListProjectsForUser(ctx, modUser.ID)
	if len(projects) != 0 {
		t.Fatalf("membership survived project delete: %+v", projects)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "dan@gmail.com")

	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		if w := app.do(t, http.MethodGet, p, "", ""); w.Code != http.StatusOK {
			t.Fatalf("%s: %d", p, w.Code)
		}
	}

	w := app.do(t, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(w.Body.String(), "projecthub_auth_attempts_total") {
		t.Fatalf("auth counter missing from metrics")
	}
}

func TestProfileEditAndUserDelete(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	dan := app.login(t, "dan@gmail.com")
	jwToken := app.login(t, "jw@gmail.com")
	mod := app.login(t, "mod@example.com")

	w := app.do(t, http.MethodPatch, "/me", dan, `{"lastName":"Bae-Kim"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"lastName":"Bae-Kim"`) {
		t.Fatalf("patch me: %d %s", w.Code, w.Body.String())
	}
	if w := app.do(t, http.MethodPatch, "/me", dan, `{"firstName":"abcdefghijklmnopqrstuvwxyz"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("overlong name: %d %s", w.Code, w.Body.String())
	}

	jw, _ := app.store.GetUserByEmail(ctx, "jw@gmail.com")

	if w := app.do(t, http.MethodDelete, "/users/"+jw.ID, dan, ""); w.Code != http.StatusForbidden {
		t.Fatalf("member delete user: %d", w.Code)
	}
	if w := app.do(t, http.MethodDelete, "/users/"+jw.ID, mod, ""); w.Code != http.StatusNoContent {
		t.Fatalf("moderator delete user: %d %s", w.Code, w.Body.String())
	}

	if w := app.do(t, http.MethodGet, "/users/"+jw.ID, "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("deleted user still readable: %d", w.Code)
	}
	// the deleted account's session no longer authenticates
	if w := app.do(t, http.MethodGet, "/me", jwToken, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user session: %d", w.Code)
	}

	mobile, _ := app.store.GetProjectByName(ctx, "Anyone looking to get started with mobile development?")
	members, _ := app.store.ListMembers(ctx, mobile.ID)
	if len(members) != 0 {
		t.Fatalf("membership survived user delete: %+v", members)
	}
}

func TestBlankNamesRejected(t *testing.T) {
	app := newTestApp(t)
	dan := app.login(t, "dan@gmail.com")
	mod := app.login(t, "mod@example.com")

	cases := []struct {
		method, path, token, body string
	}{
		{http.MethodPost, "/skills", dan, `{"name":"   ","description":"x"}`},
		{http.MethodPost, "/projects", dan, `{"name":" \t ","description":"x"}`},
		{http.MethodPost, "/fields", mod, `{"name":"  ","description":"x"}`},
		{http.MethodPatch, "/me", dan, `{"firstName":"  "}`},
	}
	for _, tc := range cases {
		w := app.do(t, tc.method, tc.path, tc.token, tc.body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s %s: got %d %s", tc.method, tc.path, w.Code, w.Body.String())
		}
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		mustDecode(t, w, &resp)
		if resp.Error.Code != "invalid_name" {
			t.Fatalf("%s %s: code %q", tc.method, tc.path, resp.Error.Code)
		}
	}

	if w := app.do(t, http.MethodGet, "/skills", "", ""); strings.Contains(w.Body.String(), `"name":"   "`) {
		t.Fatalf("blank skill stored: %s", w.Body.String())
	}
}

func TestAuthLimiterNotBypassedByForwardedFor(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.AuthRateLimit = 3 })

	limited := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"dan@gmail.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i+1))
		req.RemoteAddr = "203.0.113.7:4444"
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 7 {
		t.Fatalf("want 7 throttled attempts, got %d", limited)
	}
}
