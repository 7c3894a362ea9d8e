// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/gitquiz/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByGitHubID はGitHub IDでユーザーを検索する。見つからない場合はnilを返す。
	// GitHub IDはアップサートの自然キーであり、1ユーザーにつき1レコードのみ存在する。
	FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateLogin はログイン成功時にアクセストークンと表示用フィールドを更新する。
	// GitHub IDとローカルIDの紐付けは変更しない。
	UpdateLogin(ctx context.Context, user *model.User) error
}

// SessionRepository はセッション行の永続化インターフェース。
// セッションストアアダプタ以外からは使用しない。
type SessionRepository interface {
	// FindBySID は指定sidのセッション行を取得する。
	// 見つからない場合および期限切れの場合はnilを返す。
	FindBySID(ctx context.Context, sid string) (*model.SessionRecord, error)

	// Upsert はセッション行を挿入または上書きする。
	Upsert(ctx context.Context, record *model.SessionRecord) error

	// DeleteBySID は指定sidのセッション行を削除する。
	// 存在しない行の削除はエラーにならない（冪等）。
	DeleteBySID(ctx context.Context, sid string) error

	// DeleteExpired は期限切れのセッション行を削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
