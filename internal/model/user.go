// Package model はドメインモデルを定義する。
package model

import "time"

// User はGitHubアカウントに紐付くサービス利用ユーザーを表す。
// GitHubIDが外部IdP側の不変な自然キーであり、IDはローカルの主キー。
type User struct {
	ID             string
	GitHubID       int64
	GitHubUsername string
	GitHubToken    string
	Name           string
	AvatarURL      string
	Bio            string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SessionRecord は永続化されたHTTPセッションの行を表す。
// ExpiresAtはペイロードのcookieメタデータに埋め込まれた有効期限から導出され、
// 常にペイロード側の値と一致しなければならない。
type SessionRecord struct {
	SID       string
	Payload   []byte
	ExpiresAt time.Time
}
