// Package session はセッションストアアダプタを提供する。
// sid + JSONペイロードの形でHTTPセッションをリレーショナルストアに永続化し、
// load / save / destroy / touch の4操作コントラクトを実装する。
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// CookieMeta はペイロードに埋め込まれるcookieメタデータ。
// Expiresがセッション行のexpireカラムの導出元となる。
type CookieMeta struct {
	Expires  time.Time `json:"expires"`
	MaxAge   int       `json:"maxAge,omitempty"`
	HTTPOnly bool      `json:"httpOnly"`
	Path     string    `json:"path,omitempty"`
}

// Payload はセッションごとに永続化されるJSONドキュメント。
// 最低限、認証済みプリンシパルのローカルID（未認証時は空）と
// cookieの有効期限を含む。
type Payload struct {
	Cookie CookieMeta `json:"cookie"`
	UserID string     `json:"userId,omitempty"`
}

// NewPayload は認証済みプリンシパル用のペイロードを生成する。
// 有効期限はnowからmaxAge秒後に設定される。
func NewPayload(userID string, maxAge int, now time.Time) *Payload {
	return &Payload{
		Cookie: CookieMeta{
			Expires:  now.Add(time.Duration(maxAge) * time.Second),
			MaxAge:   maxAge,
			HTTPOnly: true,
			Path:     "/",
		},
		UserID: userID,
	}
}

// Marshal はペイロードをJSONにシリアライズする。
func (p *Payload) Marshal() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session payload: %w", err)
	}
	return b, nil
}

// UnmarshalPayload はJSONからペイロードを復元する。
func UnmarshalPayload(data []byte) (*Payload, error) {
	p := &Payload{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session payload: %w", err)
	}
	return p, nil
}
