package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gitquiz/internal/middleware"
	"github.com/hitoshi/gitquiz/internal/model"
)

// QuizServiceInterface はクイズハンドラーが必要とするサービスインターフェース。
type QuizServiceInterface interface {
	GenerateQuestions(ctx context.Context, user *model.User, repo string) ([]string, error)
}

// QuizHandler はクイズ質問生成のHTTPハンドラー。
type QuizHandler struct {
	service QuizServiceInterface
}

// NewQuizHandler はQuizHandlerを生成する。
func NewQuizHandler(service QuizServiceInterface) *QuizHandler {
	return &QuizHandler{service: service}
}

// GetQuestions は認証済みユーザーの指定リポジトリからクイズ質問を生成する。
// GET /quiz-questions/{repoId}
func (h *QuizHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.MessageNotAuthenticated)
		return
	}

	repo := chi.URLParam(r, "repoId")

	questions, err := h.service.GenerateQuestions(r.Context(), user, repo)
	if err != nil {
		slog.Error("failed to generate quiz questions",
			slog.String("repo", repo),
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, questions)
}
