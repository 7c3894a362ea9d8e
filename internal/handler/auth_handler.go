package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/gitquiz/internal/auth"
	"github.com/hitoshi/gitquiz/internal/session"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*auth.Login, error)
	Logout(ctx context.Context, sid string) error
}

// LoginRecorder はログイン成功のメトリクス記録インターフェース。
type LoginRecorder interface {
	RecordLogin()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL  string // 認証成功後のリダイレクト先
	FailureURL   string // 認証失敗後のリダイレクト先（ログインページ）
	CookieSecure bool
}

// AuthHandler はGitHub OAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	manager *session.Manager
	metrics LoginRecorder // nil可
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, manager *session.Manager, metrics LoginRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		manager: manager,
		metrics: metrics,
		config:  config,
	}
}

// Login はGitHub OAuthフローを開始する。
// GET /auth/github/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.service.GetLoginURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/github/callback?code=xxx&state=yyy
// 認証が失敗した場合はUserにもSessionにも変更を加えず、ログインページに
// リダイレクトする。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.clearStateCookie(w)

	// 1. プロバイダーが認可を拒否した場合（?error=access_denied等）
	if provErr := r.URL.Query().Get("error"); provErr != "" {
		slog.Warn("oauth provider denied authorization",
			slog.String("provider_error", provErr),
		)
		http.Redirect(w, r, h.config.FailureURL, http.StatusTemporaryRedirect)
		return
	}

	// 2. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("query_state", state),
		)
		http.Redirect(w, r, h.config.FailureURL, http.StatusTemporaryRedirect)
		return
	}

	// 3. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, h.config.FailureURL, http.StatusTemporaryRedirect)
		return
	}

	// 4. 認証処理（ユーザーのアップサート + セッション確立）
	login, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.config.FailureURL, http.StatusTemporaryRedirect)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin()
	}

	// 5. 署名付きセッションCookieを設定し、フロントエンドにリダイレクト
	h.manager.SetCookie(w, login.SessionID, login.ExpiresAt)
	http.Redirect(w, r, h.config.FrontendURL, http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄し、Cookieをクリアする。
// GET /logout
// セッションが存在しない場合でも成功扱いでリダイレクトする。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := h.manager.SIDFromRequest(r)
	if sid != "" {
		if err := h.service.Logout(r.Context(), sid); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.manager.ClearCookie(w)
	http.Redirect(w, r, h.config.FrontendURL, http.StatusTemporaryRedirect)
}

// clearStateCookie はOAuth stateクッキーを削除する。
func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState は暗号的に安全なOAuth stateを生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
