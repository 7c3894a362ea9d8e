package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gitquiz/internal/github"
	"github.com/hitoshi/gitquiz/internal/middleware"
	"github.com/hitoshi/gitquiz/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) UpdateLogin(ctx context.Context, user *model.User) error { return nil }

type mockRepoLister struct {
	listFn func(ctx context.Context, token, username string) ([]github.Repo, error)
}

func (m *mockRepoLister) ListUserRepos(ctx context.Context, token, username string) ([]github.Repo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, token, username)
	}
	return nil, nil
}

var _ RepoLister = (*mockRepoLister)(nil)

func authedReq(method, target string, user *model.User) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUser(req.Context(), user))
}

// --- テスト ---

func TestUserHandler_Me_ReturnsNameAndAvatar(t *testing.T) {
	h := NewUserHandler(&mockUserRepo{}, &mockRepoLister{})

	user := &model.User{
		ID:          "user-1",
		Name:        "Ada Lovelace",
		AvatarURL:   "http://example.com/a.png",
		GitHubToken: "gho_secret",
	}
	rec := httptest.NewRecorder()

	h.Me(rec, authedReq(http.MethodGet, "/users/me", user))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	// レスポンスは表示用2フィールドのみ。トークン等は漏れない。
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["name"] != "Ada Lovelace" {
		t.Errorf("name = %v", body["name"])
	}
	if body["avatarUrl"] != "http://example.com/a.png" {
		t.Errorf("avatarUrl = %v", body["avatarUrl"])
	}
	if len(body) != 2 {
		t.Errorf("body has %d fields, want 2: %v", len(body), body)
	}
}

func TestUserHandler_Me_Anonymous_Returns401(t *testing.T) {
	h := NewUserHandler(&mockUserRepo{}, &mockRepoLister{})

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "Not authenticated" {
		t.Errorf("error = %q, want %q", body.Error, "Not authenticated")
	}
}

func profileRequest(t *testing.T, h *UserHandler, viewer *model.User, id string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/users/profile/{id}", h.Profile)

	req := authedReq(http.MethodGet, "/users/profile/"+id, viewer)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserHandler_Profile_ReturnsUserWithRepos(t *testing.T) {
	viewer := &model.User{ID: "viewer-1", GitHubToken: "gho_viewer"}
	target := &model.User{
		ID:             "target-1",
		Name:           "Grace",
		AvatarURL:      "http://example.com/g.png",
		Bio:            "compiler pioneer",
		GitHubUsername: "grace",
	}

	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if id != "target-1" {
				t.Errorf("id = %q, want target-1", id)
			}
			return target, nil
		},
	}
	repos := &mockRepoLister{
		listFn: func(ctx context.Context, token, username string) ([]github.Repo, error) {
			if token != "gho_viewer" {
				t.Errorf("token = %q, want viewer token", token)
			}
			if username != "grace" {
				t.Errorf("username = %q, want grace", username)
			}
			return []github.Repo{{ID: 1, Name: "compiler"}, {ID: 2, Name: "linker"}}, nil
		},
	}

	h := NewUserHandler(users, repos)
	rec := profileRequest(t, h, viewer, "target-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Name       string        `json:"name"`
		Bio        string        `json:"bio"`
		Repos      []github.Repo `json:"repos"`
		ReposCount int           `json:"reposCount"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Name != "Grace" || body.Bio != "compiler pioneer" {
		t.Errorf("profile = %+v", body)
	}
	if body.ReposCount != 2 || len(body.Repos) != 2 {
		t.Errorf("repos = %d/%d, want 2/2", len(body.Repos), body.ReposCount)
	}
}

func TestUserHandler_Profile_UnknownID_Returns404(t *testing.T) {
	h := NewUserHandler(&mockUserRepo{}, &mockRepoLister{})

	rec := profileRequest(t, h, &model.User{ID: "viewer-1"}, "missing")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUserHandler_Profile_RepoFetchFailure_Returns500(t *testing.T) {
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, GitHubUsername: "grace"}, nil
		},
	}
	repos := &mockRepoLister{
		listFn: func(ctx context.Context, token, username string) ([]github.Repo, error) {
			return nil, errors.New("github api status 502")
		},
	}

	h := NewUserHandler(users, repos)
	rec := profileRequest(t, h, &model.User{ID: "viewer-1"}, "target-1")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "github api status 502" {
		t.Errorf("error = %q, want upstream message", body.Error)
	}
}
