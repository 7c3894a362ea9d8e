package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gitquiz/internal/github"
	"github.com/hitoshi/gitquiz/internal/middleware"
	"github.com/hitoshi/gitquiz/internal/repository"
)

// RepoLister はユーザーのリポジトリ一覧取得のインターフェース。
// github.Clientの部分集合として定義する。
type RepoLister interface {
	ListUserRepos(ctx context.Context, token, username string) ([]github.Repo, error)
}

// UserHandler はユーザー関連のHTTPハンドラー。
type UserHandler struct {
	users repository.UserRepository
	repos RepoLister
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(users repository.UserRepository, repos RepoLister) *UserHandler {
	return &UserHandler{
		users: users,
		repos: repos,
	}
}

// meResponse はGET /users/meのレスポンスボディ。
// フロントエンドはこの2フィールドのみに依存する。
type meResponse struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// Me は認証済みユーザー自身の表示用プロファイルを返す。
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.MessageNotAuthenticated)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	})
}

// profileResponse はGET /users/profile/{id}のレスポンスボディ。
type profileResponse struct {
	Name           string        `json:"name"`
	AvatarURL      string        `json:"avatarUrl"`
	Bio            string        `json:"bio"`
	GitHubUsername string        `json:"githubUsername"`
	Repos          []github.Repo `json:"repos"`
	ReposCount     int           `json:"reposCount"`
}

// Profile は任意ユーザーの公開プロファイルとリポジトリ一覧を返す。
// GET /users/profile/{id}
// リポジトリ一覧の取得には閲覧者自身のアクセストークンを使用する。
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewer, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.MessageNotAuthenticated)
		return
	}

	id := chi.URLParam(r, "id")

	target, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("failed to find user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if target == nil {
		middleware.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	repos, err := h.repos.ListUserRepos(r.Context(), viewer.GitHubToken, target.GitHubUsername)
	if err != nil {
		slog.Error("failed to list user repos",
			slog.String("github_username", target.GitHubUsername),
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if repos == nil {
		repos = []github.Repo{}
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Name:           target.Name,
		AvatarURL:      target.AvatarURL,
		Bio:            target.Bio,
		GitHubUsername: target.GitHubUsername,
		Repos:          repos,
		ReposCount:     len(repos),
	})
}
