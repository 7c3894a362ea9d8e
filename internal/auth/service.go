// Package auth はGitHub OAuth認証フローとセッション確立を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/gitquiz/internal/model"
	"github.com/hitoshi/gitquiz/internal/repository"
	"github.com/hitoshi/gitquiz/internal/session"
)

// GitHubProfile はOAuthプロバイダーから取得したプロファイルとアクセストークンを表す。
type GitHubProfile struct {
	GitHubID    int64
	Username    string
	Name        string
	AvatarURL   string
	Bio         string
	AccessToken string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロファイルを取得する。
	ExchangeCode(ctx context.Context, code string) (*GitHubProfile, error)
}

// BioSanitizer はプロファイルのbioを保存前にサニタイズする。
type BioSanitizer interface {
	Sanitize(raw string) string
}

// Login は確立されたログインセッションを表す。
type Login struct {
	SessionID string
	User      *model.User
	ExpiresAt time.Time
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// 単一セッションの認証状態（Anonymous → Pending → Authenticated → Anonymous）を
// OAuthコールバックとセッションストアの間で遷移させる。
type Service struct {
	oauth     OAuthProvider
	users     repository.UserRepository
	store     session.Store
	sanitizer BioSanitizer
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	users repository.UserRepository,
	store session.Store,
	sanitizer BioSanitizer,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:     oauth,
		users:     users,
		store:     store,
		sanitizer: sanitizer,
		config:    config,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
// Anonymous → Pendingの遷移であり、永続化される副作用は持たない。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを確立する。
// GitHub IDを自然キーとしてユーザーをアップサートする:
// 未登録のGitHub IDならUserレコードを新規作成し、登録済みなら
// アクセストークンと表示用フィールドのみを更新する（紐付けは不変）。
// プロバイダーが認可を拒否した場合はUserもSessionも変更せずエラーを返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (*Login, error) {
	// 1. 認可コードをトークンに交換し、プロファイルを取得
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. GitHub IDで既存ユーザーを検索
	user, err := s.users.FindByGitHubID(ctx, profile.GitHubID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := time.Now()
	bio := profile.Bio
	if s.sanitizer != nil {
		bio = s.sanitizer.Sanitize(bio)
	}

	if user != nil {
		// 3a. 既存ユーザー: トークンと表示用フィールドを更新
		user.GitHubToken = profile.AccessToken
		user.GitHubUsername = profile.Username
		user.Name = profile.Name
		user.AvatarURL = profile.AvatarURL
		user.Bio = bio
		user.UpdatedAt = now

		if err := s.users.UpdateLogin(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user login: %w", err)
		}

		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
			slog.Int64("github_id", user.GitHubID),
		)
	} else {
		// 3b. 新規ユーザー: プロファイルからUserレコードを作成
		user = &model.User{
			ID:             uuid.New().String(),
			GitHubID:       profile.GitHubID,
			GitHubUsername: profile.Username,
			GitHubToken:    profile.AccessToken,
			Name:           profile.Name,
			AvatarURL:      profile.AvatarURL,
			Bio:            bio,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.Int64("github_id", user.GitHubID),
			slog.String("github_username", user.GitHubUsername),
		)
	}

	// 4. セッションを確立（ペイロードにプリンシパルのローカルIDを格納）
	login, err := s.createSession(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return login, nil
}

// Logout はセッションを破棄し、Anonymousに遷移させる。
// 存在しないセッションのログアウトは成功扱い。
func (s *Service) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}

	if err := s.store.Destroy(ctx, sid); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sid))
	return nil
}

// CurrentUser はセッションから現在のプリンシパルを取得する。
// セッションが存在しない・期限切れ・参照先ユーザーが削除済みの場合は
// (nil, nil)を返しAnonymousとして扱う。エラーはストレージ障害のみ。
func (s *Service) CurrentUser(ctx context.Context, sid string) (*model.User, error) {
	if sid == "" {
		return nil, nil
	}

	payload, err := s.store.Load(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if payload == nil || payload.UserID == "" {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	// 削除済みユーザーを指すstaleセッションはAnonymousに降格する
	return user, nil
}

// createSession はセッションIDを発行し、ペイロードを永続化する。
func (s *Service) createSession(ctx context.Context, user *model.User, now time.Time) (*Login, error) {
	sid, err := session.NewSID()
	if err != nil {
		return nil, err
	}

	payload := session.NewPayload(user.ID, s.config.SessionMaxAge, now)
	if err := s.store.Save(ctx, sid, payload); err != nil {
		return nil, err
	}

	return &Login{
		SessionID: sid,
		User:      user,
		ExpiresAt: payload.Cookie.Expires,
	}, nil
}
