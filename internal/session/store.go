package session

import (
	"context"
	"fmt"

	"github.com/hitoshi/gitquiz/internal/model"
	"github.com/hitoshi/gitquiz/internal/repository"
)

// Store はセッションストアの4操作コントラクト。
// 「行が見つからない」はエラーではなく(nil, nil)として返す。
// ストレージ障害のみがエラーとして伝播する。
type Store interface {
	// Load は指定sidのペイロードを取得する。
	// 見つからない場合および期限切れの場合は(nil, nil)を返す。
	Load(ctx context.Context, sid string) (*Payload, error)

	// Save はペイロードをアップサートする。
	// expireカラムはペイロードのcookieメタデータに埋め込まれた有効期限から導出する。
	Save(ctx context.Context, sid string, payload *Payload) error

	// Destroy は指定sidのセッションを削除する。存在しないsidの削除は成功扱い。
	Destroy(ctx context.Context, sid string) error

	// Touch はペイロードと有効期限を再永続化する。セマンティクスはSaveと同じ。
	Touch(ctx context.Context, sid string, payload *Payload) error
}

// DBStore はリレーショナルストアを背後に持つStore実装。
// セッション行との変換はこのアダプタのみが担い、他のコンポーネントは
// SessionRepositoryを直接触らない。
type DBStore struct {
	sessions repository.SessionRepository
}

// NewDBStore はDBStoreを生成する。
func NewDBStore(sessions repository.SessionRepository) *DBStore {
	return &DBStore{sessions: sessions}
}

// Load は指定sidのペイロードを取得する。
func (s *DBStore) Load(ctx context.Context, sid string) (*Payload, error) {
	record, err := s.sessions.FindBySID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	payload, err := UnmarshalPayload(record.Payload)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save はペイロードをアップサートする。
func (s *DBStore) Save(ctx context.Context, sid string, payload *Payload) error {
	if payload == nil {
		return fmt.Errorf("session payload is required")
	}
	if payload.Cookie.Expires.IsZero() {
		return fmt.Errorf("session payload has no cookie expiry")
	}

	data, err := payload.Marshal()
	if err != nil {
		return err
	}

	record := &model.SessionRecord{
		SID:       sid,
		Payload:   data,
		ExpiresAt: payload.Cookie.Expires,
	}
	return s.sessions.Upsert(ctx, record)
}

// Destroy は指定sidのセッションを削除する。
func (s *DBStore) Destroy(ctx context.Context, sid string) error {
	return s.sessions.DeleteBySID(ctx, sid)
}

// Touch はSaveに委譲する。
func (s *DBStore) Touch(ctx context.Context, sid string, payload *Payload) error {
	return s.Save(ctx, sid, payload)
}

// compile-time interface check
var _ Store = (*DBStore)(nil)
