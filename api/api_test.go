package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpupo63/portfolio-cms-backend/auth"
	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/models"
	"github.com/rpupo63/portfolio-cms-backend/services"
)

const (
	testSecret   = "test-secret-that-is-at-least-32-chars"
	testEmail    = "admin@example.com"
	testPassword = "correct horse battery"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type testAPI struct {
	handler   http.Handler
	db        database.Database
	store     *services.LocalStore
	token     string
	userEmail string
}

// newTestAPI builds a router over a fresh sqlite database with one admin user.
func newTestAPI(t *testing.T, cfg map[string]string, email EmailSender) *testAPI {
	t.Helper()

	gdb, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), nil)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db := database.New(gdb)
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{Email: testEmail, PasswordHash: hash, Name: "Admin"}
	if err := db.UserRepo().Add(context.Background(), user); err != nil {
		t.Fatalf("add user: %v", err)
	}

	tokens, err := auth.NewTokens(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	token, _, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	store, err := services.NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	if cfg == nil {
		cfg = map[string]string{}
	}
	cfg["LOG_REQUESTS"] = "false"

	handler := newRouter(db, withConfig(cfg), withDependencies(Dependencies{
		Tokens: tokens,
		Store:  store,
		Email:  email,
	}))
	return &testAPI{handler: handler, db: db, store: store, token: token, userEmail: user.Email}
}

// do sends a JSON request; an empty token sends it without a session.
func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/projects", nil},
		{http.MethodPost, "/api/skills", map[string]any{"category": "Tools", "name": "Docker"}},
		{http.MethodDelete, "/api/services/bulk", map[string]any{"ids": []string{"3f0e8f6e-6a43-4a43-9d55-1f0c3b8f7a11"}}},
		{http.MethodPut, "/api/settings", map[string]any{"siteName": "x"}},
		{http.MethodGet, "/api/activity", nil},
		{http.MethodGet, "/api/auth/session", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			for _, token := range []string{"", "not-a-token"} {
				rec := a.do(t, tt.method, tt.path, tt.body, token)
				expectStatus(t, rec, http.StatusUnauthorized)
				got := decode[ErrorResponse](t, rec)
				if got.Error != "unauthorized" || got.Status != "error" {
					t.Errorf("body = %+v, want unauthorized error", got)
				}
			}
		})
	}

	count, err := a.db.SkillRepo().Count(context.Background())
	if err != nil {
		t.Fatalf("count skills: %v", err)
	}
	if count != 0 {
		t.Errorf("skills = %d after rejected create, want 0", count)
	}
}

func TestLoginSessionFlow(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: testEmail, Password: "wrong password"}, "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "ADMIN@example.com", Password: testPassword}, "")
	expectStatus(t, rec, http.StatusOK)
	session := decode[SessionResponse](t, rec)
	if session.Token == "" || session.ExpiresAt == nil {
		t.Fatalf("login response missing token: %+v", session)
	}
	if session.User.Email != testEmail {
		t.Errorf("user email = %q, want %q", session.User.Email, testEmail)
	}
	if strings.Contains(rec.Body.String(), "passwordHash") {
		t.Errorf("login response leaks password hash: %s", rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login did not set the session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}
	if cookie.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("session cookie MaxAge = %d, want the token lifetime", cookie.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[SessionResponse](t, rec); got.User.Email != testEmail {
		t.Errorf("session user = %q, want %q", got.User.Email, testEmail)
	}

	rec = a.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	expectStatus(t, rec, http.StatusNoContent)
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("logout cookies = %+v, want one expired session cookie", cleared)
	}

	entries, err := a.db.ActivityLogRepo().List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != models.ActionLogin {
		t.Errorf("activity = %+v, want one login entry", entries)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	a := newTestAPI(t, map[string]string{"LOGIN_RATE_BURST": "2"}, nil)

	for i := 0; i < 2; i++ {
		rec := a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: testEmail, Password: "nope"}, "")
		expectStatus(t, rec, http.StatusUnauthorized)
	}

	rec := a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: testEmail, Password: testPassword}, "")
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response has no Retry-After header")
	}
}

func TestValidationErrorShape(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodPost, "/api/skills", map[string]any{"level": 150}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)

	got := decode[ErrorResponse](t, rec)
	if got.Status != "validation_error" {
		t.Errorf("status = %q, want validation_error", got.Status)
	}
	fields := map[string]bool{}
	for _, fe := range got.Errors {
		fields[fe.Field] = true
		if fe.Message == "" {
			t.Errorf("field %s has no message", fe.Field)
		}
	}
	for _, want := range []string{"category", "name", "level"} {
		if !fields[want] {
			t.Errorf("errors %+v missing field %q", got.Errors, want)
		}
	}
}

func TestProjectYearRangeMatchesOnUpdate(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodPost, "/api/projects", map[string]any{
		"slug": "dated", "title": "Dated", "category": "web", "description": "A project", "year": 2021,
	}, a.token)
	expectStatus(t, rec, http.StatusCreated)
	project := decode[models.Project](t, rec)

	for _, year := range []int{5, 1969, 2101} {
		rec = a.do(t, http.MethodPut, "/api/projects/"+project.ID.String(), map[string]any{"year": year}, a.token)
		expectStatus(t, rec, http.StatusBadRequest)
		if got := decode[ErrorResponse](t, rec); len(got.Errors) != 1 || got.Errors[0].Field != "year" {
			t.Errorf("year %d errors = %+v, want one on year", year, got.Errors)
		}
	}

	rec = a.do(t, http.MethodPut, "/api/projects/"+project.ID.String(), map[string]any{"year": 1970}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Project](t, rec); got.Year != 1970 {
		t.Errorf("year = %d, want 1970", got.Year)
	}
}

func TestCreateAssignsNextOrder(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	create := func(category, name string, order *int) models.Skill {
		body := map[string]any{"category": category, "name": name, "level": 60}
		if order != nil {
			body["order"] = *order
		}
		rec := a.do(t, http.MethodPost, "/api/skills", body, a.token)
		expectStatus(t, rec, http.StatusCreated)
		return decode[models.Skill](t, rec)
	}

	for i, name := range []string{"Docker", "Git", "Make"} {
		if got := create("Tools", name, nil).Order; got != i {
			t.Errorf("%s order = %d, want %d", name, got, i)
		}
	}
	if got := create("Frameworks", "React", nil).Order; got != 0 {
		t.Errorf("first framework order = %d, want 0", got)
	}
	explicit := 7
	if got := create("Tools", "Vim", &explicit).Order; got != 7 {
		t.Errorf("explicit order = %d, want 7", got)
	}
	if got := create("Tools", "Bash", nil).Order; got != 8 {
		t.Errorf("order after explicit 7 = %d, want 8", got)
	}

	rec := a.do(t, http.MethodGet, "/api/skills?category=Frameworks", nil, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.Skill](t, rec); len(got) != 1 || got[0].Name != "React" {
		t.Errorf("filtered skills = %+v, want only React", got)
	}
}

func TestProjectSlugUniqueness(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	project := func(slug, title string) map[string]any {
		return map[string]any{
			"slug":        slug,
			"title":       title,
			"category":    "web",
			"description": "A project",
			"images":      []map[string]string{{"url": "/uploads/a.png", "alt": "first"}, {"url": "https://cdn.example.com/b.png"}},
		}
	}

	rec := a.do(t, http.MethodPost, "/api/projects", project("alpha", "Alpha"), a.token)
	expectStatus(t, rec, http.StatusCreated)
	alpha := decode[models.Project](t, rec)
	if len(alpha.Images) != 2 || alpha.Images[1].Order != 1 {
		t.Errorf("images = %+v, want two ordered images", alpha.Images)
	}

	rec = a.do(t, http.MethodPost, "/api/projects", project("alpha", "Alpha again"), a.token)
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[ErrorResponse](t, rec); got.Field != "slug" {
		t.Errorf("conflict field = %q, want slug", got.Field)
	}

	rec = a.do(t, http.MethodPost, "/api/projects", project("beta", "Beta"), a.token)
	expectStatus(t, rec, http.StatusCreated)
	beta := decode[models.Project](t, rec)

	rec = a.do(t, http.MethodPut, "/api/projects/"+beta.ID.String(), map[string]any{"slug": "beta", "title": "Beta 2"}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Project](t, rec); got.Title != "Beta 2" || len(got.Images) != 2 {
		t.Errorf("updated project = %+v, want new title and untouched images", got)
	}

	rec = a.do(t, http.MethodPut, "/api/projects/"+beta.ID.String(), map[string]any{"slug": "alpha"}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(t, http.MethodPut, "/api/projects/"+beta.ID.String(), map[string]any{"images": []map[string]string{{"url": "/uploads/c.png"}}}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Project](t, rec); len(got.Images) != 1 || got.Images[0].URL != "/uploads/c.png" {
		t.Errorf("images after replace = %+v, want only c.png", got.Images)
	}
}

func TestPublicRoutesHideUnpublishedAndHidden(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodPost, "/api/projects", map[string]any{
		"slug": "draft", "title": "Draft", "category": "tool", "description": "wip",
	}, a.token)
	expectStatus(t, rec, http.StatusCreated)
	draft := decode[models.Project](t, rec)

	rec = a.do(t, http.MethodGet, "/api/public/projects", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.Project](t, rec); len(got) != 0 {
		t.Errorf("public projects = %d, want 0 while unpublished", len(got))
	}
	rec = a.do(t, http.MethodGet, "/api/public/projects/draft", nil, "")
	expectStatus(t, rec, http.StatusNotFound)

	rec = a.do(t, http.MethodGet, "/api/projects", nil, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.Project](t, rec); len(got) != 1 {
		t.Errorf("admin projects = %d, want 1", len(got))
	}

	rec = a.do(t, http.MethodPut, "/api/projects/"+draft.ID.String(), map[string]any{"published": true}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Project](t, rec); got.PublishedAt == nil {
		t.Error("publishing did not stamp publishedAt")
	}
	rec = a.do(t, http.MethodGet, "/api/public/projects/draft", nil, "")
	expectStatus(t, rec, http.StatusOK)

	rec = a.do(t, http.MethodPost, "/api/services", map[string]any{"title": "Consulting", "description": "Advice", "visible": false}, a.token)
	expectStatus(t, rec, http.StatusCreated)
	rec = a.do(t, http.MethodPost, "/api/services", map[string]any{"title": "Builds", "description": "Apps"}, a.token)
	expectStatus(t, rec, http.StatusCreated)

	rec = a.do(t, http.MethodGet, "/api/public/services", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]models.Service](t, rec); len(got) != 1 || got[0].Title != "Builds" {
		t.Errorf("public services = %+v, want only Builds", got)
	}

	rec = a.do(t, http.MethodGet, "/api/public/portfolio", nil, "")
	expectStatus(t, rec, http.StatusOK)
	portfolio := decode[PortfolioResponse](t, rec)
	if portfolio.Settings == nil || len(portfolio.Projects) != 1 || len(portfolio.Services) != 1 {
		t.Errorf("portfolio = %+v, want settings, one project and one service", portfolio)
	}
}

func TestBulkDelete(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	var ids []string
	for _, title := range []string{"One", "Two", "Three"} {
		rec := a.do(t, http.MethodPost, "/api/services", map[string]any{"title": title, "description": "d"}, a.token)
		expectStatus(t, rec, http.StatusCreated)
		ids = append(ids, decode[models.Service](t, rec).ID.String())
	}

	rec := a.do(t, http.MethodDelete, "/api/services/bulk", BulkDeleteRequest{IDs: ids[:2]}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[CountResponse](t, rec); got.Count != 2 {
		t.Errorf("deleted = %d, want 2", got.Count)
	}

	rec = a.do(t, http.MethodGet, "/api/services", nil, a.token)
	if got := decode[[]models.Service](t, rec); len(got) != 1 || got[0].ID.String() != ids[2] {
		t.Errorf("remaining services = %+v, want only Three", got)
	}

	rec = a.do(t, http.MethodDelete, "/api/services/bulk", BulkDeleteRequest{IDs: []string{}}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(t, http.MethodDelete, "/api/services/bulk", BulkDeleteRequest{IDs: []string{"nope"}}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(t, http.MethodDelete, "/api/services/"+ids[0], nil, a.token)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestMutationsWriteActivity(t *testing.T) {
	a := newTestAPI(t, nil, nil)
	ctx := context.Background()

	rec := a.do(t, http.MethodPost, "/api/projects", map[string]any{
		"slug": "gone", "title": "Going", "category": "web", "description": "A project",
	}, a.token)
	expectStatus(t, rec, http.StatusCreated)
	project := decode[models.Project](t, rec)

	rec = a.do(t, http.MethodPut, "/api/projects/"+project.ID.String(), map[string]any{"title": "Gone"}, a.token)
	expectStatus(t, rec, http.StatusOK)
	rec = a.do(t, http.MethodDelete, "/api/projects/"+project.ID.String(), nil, a.token)
	expectStatus(t, rec, http.StatusOK)

	var skillIDs []string
	for _, name := range []string{"Docker", "Git", "Make"} {
		rec = a.do(t, http.MethodPost, "/api/skills", map[string]any{"category": "Tools", "name": name, "level": 50}, a.token)
		expectStatus(t, rec, http.StatusCreated)
		skillIDs = append(skillIDs, decode[models.Skill](t, rec).ID.String())
	}
	rec = a.do(t, http.MethodPut, "/api/skills/"+skillIDs[0], map[string]any{"level": 80}, a.token)
	expectStatus(t, rec, http.StatusOK)
	rec = a.do(t, http.MethodDelete, "/api/skills/"+skillIDs[0], nil, a.token)
	expectStatus(t, rec, http.StatusOK)
	rec = a.do(t, http.MethodDelete, "/api/skills/bulk", BulkDeleteRequest{IDs: skillIDs[1:]}, a.token)
	expectStatus(t, rec, http.StatusOK)

	entries, err := a.db.ActivityLogRepo().List(ctx, 100)
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(entries) != 9 {
		t.Fatalf("activity entries = %d, want 9", len(entries))
	}

	find := func(action, entityType string) []*models.ActivityLog {
		var out []*models.ActivityLog
		for _, e := range entries {
			if e.Action == action && e.EntityType == entityType {
				out = append(out, e)
			}
		}
		return out
	}
	metadata := func(e *models.ActivityLog) map[string]any {
		t.Helper()
		var m map[string]any
		if err := json.Unmarshal(e.Metadata, &m); err != nil {
			t.Fatalf("decode metadata %q: %v", e.Metadata, err)
		}
		return m
	}

	tests := []struct {
		action     string
		entityType string
		want       int
	}{
		{models.ActionCreate, "project", 1},
		{models.ActionUpdate, "project", 1},
		{models.ActionDelete, "project", 1},
		{models.ActionCreate, "skill", 3},
		{models.ActionUpdate, "skill", 1},
		{models.ActionDelete, "skill", 1},
		{models.ActionBulkDelete, "skill", 1},
	}
	for _, tt := range tests {
		if got := find(tt.action, tt.entityType); len(got) != tt.want {
			t.Errorf("%s %s entries = %d, want %d", tt.action, tt.entityType, len(got), tt.want)
		}
	}
	for _, e := range entries {
		if e.UserID == nil {
			t.Errorf("%s %s entry has no user", e.Action, e.EntityType)
		}
	}

	if deleted := find(models.ActionDelete, "project"); len(deleted) == 1 {
		m := metadata(deleted[0])
		if m["slug"] != "gone" || m["title"] != "Gone" {
			t.Errorf("project delete metadata = %v, want slug and title", m)
		}
		if deleted[0].EntityID == nil || *deleted[0].EntityID != project.ID {
			t.Errorf("project delete entity id = %v, want %s", deleted[0].EntityID, project.ID)
		}
	}
	if deleted := find(models.ActionDelete, "skill"); len(deleted) == 1 {
		if m := metadata(deleted[0]); m["label"] != "Docker (Tools)" {
			t.Errorf("skill delete metadata = %v, want its label", m)
		}
	}
	if bulk := find(models.ActionBulkDelete, "skill"); len(bulk) == 1 {
		m := metadata(bulk[0])
		if m["count"] != float64(2) {
			t.Errorf("bulk delete metadata = %v, want count 2", m)
		}
		if ids, _ := m["ids"].([]any); len(ids) != 2 {
			t.Errorf("bulk delete ids = %v, want two", m["ids"])
		}
	}
	if updated := find(models.ActionUpdate, "skill"); len(updated) == 1 {
		fields, _ := metadata(updated[0])["fields"].([]any)
		if len(fields) != 1 || fields[0] != "level" {
			t.Errorf("skill update fields = %v, want [level]", fields)
		}
	}
	for _, created := range find(models.ActionCreate, "skill") {
		if _, ok := metadata(created)["order"]; !ok {
			t.Errorf("skill create entry %q has no order", created.Description)
		}
	}
}

func TestCurrentExperienceHasNoEndDate(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodPost, "/api/experience", map[string]any{
		"company":   "Acme",
		"position":  "Engineer",
		"startDate": "2020-01-01T00:00:00Z",
		"endDate":   "2021-06-01T00:00:00Z",
		"current":   true,
	}, a.token)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[map[string]any](t, rec)
	if created["endDate"] != nil {
		t.Errorf("endDate = %v on a current role, want null", created["endDate"])
	}

	id := created["id"].(string)
	rec = a.do(t, http.MethodPut, "/api/experience/"+id, map[string]any{"endDate": "2022-01-01T00:00:00Z"}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["endDate"] != nil {
		t.Errorf("endDate = %v after update of a current role, want null", got["endDate"])
	}

	rec = a.do(t, http.MethodPut, "/api/experience/"+id, map[string]any{"current": false, "endDate": "2022-01-01T00:00:00Z"}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec); got["endDate"] == nil {
		t.Error("endDate still null after ending the role")
	}
}

func TestSettingsUpsert(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodGet, "/api/public/settings", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.SiteSettings](t, rec); got.ID != models.SiteSettingsID {
		t.Errorf("settings id = %d, want %d", got.ID, models.SiteSettingsID)
	}

	rec = a.do(t, http.MethodPut, "/api/settings", map[string]any{"contactEmail": "not-an-email"}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(t, http.MethodPut, "/api/settings", map[string]any{"socialLinks": map[string]string{"github": "javascript:alert(1)"}}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[ErrorResponse](t, rec); len(got.Errors) != 1 || got.Errors[0].Field != "socialLinks.github" {
		t.Errorf("errors = %+v, want socialLinks.github", got.Errors)
	}

	rec = a.do(t, http.MethodPut, "/api/settings", map[string]any{
		"siteName":    "Jane Doe",
		"socialLinks": map[string]string{"github": "https://github.com/jane"},
	}, a.token)
	expectStatus(t, rec, http.StatusOK)

	rec = a.do(t, http.MethodPut, "/api/settings", map[string]any{"heroTitle": "Hi"}, a.token)
	expectStatus(t, rec, http.StatusOK)

	rec = a.do(t, http.MethodGet, "/api/settings", nil, a.token)
	expectStatus(t, rec, http.StatusOK)
	got := decode[models.SiteSettings](t, rec)
	if got.SiteName != "Jane Doe" || got.HeroTitle != "Hi" {
		t.Errorf("settings = %+v, want both updates kept", got)
	}
	if got.SocialLinks["github"] != "https://github.com/jane" {
		t.Errorf("socialLinks = %v", got.SocialLinks)
	}
}

func TestProfileUpdate(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodPut, "/api/profile", map[string]any{"newPassword": "another secret"}, a.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(t, http.MethodPut, "/api/profile", map[string]any{
		"name":            "Jane",
		"currentPassword": testPassword,
		"newPassword":     "another secret",
	}, a.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.User](t, rec); got.Name != "Jane" {
		t.Errorf("name = %q, want Jane", got.Name)
	}

	rec = a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: testEmail, Password: "another secret"}, "")
	expectStatus(t, rec, http.StatusOK)
}

type fakeEmail struct {
	sent []services.Email
}

func (f *fakeEmail) Send(_ context.Context, email services.Email) (string, error) {
	f.sent = append(f.sent, email)
	return "msg_1", nil
}

func TestContactForm(t *testing.T) {
	msg := ContactRequest{Name: "Sam", Email: "sam@example.com", Subject: "Hello", Message: "Nice <b>site</b>"}

	t.Run("without email provider", func(t *testing.T) {
		a := newTestAPI(t, nil, nil)
		rec := a.do(t, http.MethodPost, "/api/public/contact", msg, "")
		expectStatus(t, rec, http.StatusServiceUnavailable)
	})

	t.Run("delivers to the configured address", func(t *testing.T) {
		sender := &fakeEmail{}
		a := newTestAPI(t, map[string]string{"CONTACT_EMAIL": "owner@example.com"}, sender)

		rec := a.do(t, http.MethodPost, "/api/public/contact", ContactRequest{Name: "Sam"}, "")
		expectStatus(t, rec, http.StatusBadRequest)

		rec = a.do(t, http.MethodPost, "/api/public/contact", msg, "")
		expectStatus(t, rec, http.StatusAccepted)
		if len(sender.sent) != 1 {
			t.Fatalf("sent %d emails, want 1", len(sender.sent))
		}
		email := sender.sent[0]
		if email.To[0] != "owner@example.com" || email.ReplyTo != "sam@example.com" {
			t.Errorf("email = %+v", email)
		}
		if strings.Contains(email.Html, "<b>") {
			t.Errorf("html body not escaped: %s", email.Html)
		}
	})
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func multipartRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadStoresAndServesFile(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	req := multipartRequest(t, map[string]string{"folder": "../Projects/ok"}, "shot.png", pngBytes)
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusCreated)

	got := decode[UploadResponse](t, rec)
	if got.Type != uploadImage || got.ContentType != "image/png" || got.Size != int64(len(pngBytes)) {
		t.Errorf("upload = %+v", got)
	}
	if !strings.HasPrefix(got.Key, "projects/ok/") || !strings.HasSuffix(got.Key, ".png") {
		t.Errorf("key = %q, want projects/ok/<uuid>.png", got.Key)
	}

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, got.URL, nil))
	expectStatus(t, rec, http.StatusOK)
	if !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Error("served file differs from upload")
	}
}

func TestUploadRejections(t *testing.T) {
	gdb, err := database.OpenSQLite(filepath.Join(t.TempDir(), "upload.db"), nil)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db := database.New(gdb)
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := services.NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	h := newUploadHandler(store, db.ActivityLogRepo(), nil)
	h.rules[uploadImage] = uploadRule{maxSize: 16, allowed: []string{"image/png"}}

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		content  []byte
		want     int
	}{
		{"missing file", nil, "", nil, http.StatusBadRequest},
		{"image over the limit", nil, "big.png", pngBytes, http.StatusRequestEntityTooLarge},
		{"text sent as image", map[string]string{"type": "image"}, "notes.png", []byte("just some notes\n"), http.StatusUnsupportedMediaType},
		{"unknown type", map[string]string{"type": "archive"}, "notes.txt", []byte("just some notes\n"), http.StatusBadRequest},
		{"text as document", nil, "notes.txt", []byte("just some notes\n"), http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.uploadFile().ServeHTTP(rec, multipartRequest(t, tt.fields, tt.filename, tt.content))
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestSanitizeFolder(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"projects":          "projects",
		"Projects/2024":     "projects/2024",
		"../../etc":         "etc",
		"/a//b/":            "a/b",
		"my folder!":        "myfolder",
		"./images/./thumbs": "images/thumbs",
	}
	for in, want := range tests {
		if got := sanitizeFolder(in); got != want {
			t.Errorf("sanitizeFolder(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIPRateLimiter(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l := newIPRateLimiter("test", time.Minute, 2)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.allow("a"); !ok {
			t.Fatalf("request %d blocked inside the burst", i+1)
		}
	}
	ok, retry := l.allow("a")
	if ok {
		t.Fatal("request over the burst was allowed")
	}
	if retry <= 0 || retry > time.Minute {
		t.Errorf("retryAfter = %s, want within one interval", retry)
	}
	if ok, _ := l.allow("b"); !ok {
		t.Error("a different client was blocked")
	}

	now = base.Add(10 * time.Minute)
	if ok, _ := l.allow("c"); !ok {
		t.Error("new client blocked after idle period")
	}
	if got := l.size(); got != 1 {
		t.Errorf("tracked clients = %d after sweep, want 1", got)
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, nil, nil)

	rec := a.do(t, http.MethodGet, "/health", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[HealthResponse](t, rec); got.Status != "ok" || got.Database != "ok" {
		t.Errorf("health = %+v", got)
	}

	rec = a.do(t, http.MethodGet, "/metrics", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "portfolio_http_requests_total") {
		t.Error("metrics output has no request counter")
	}
}
