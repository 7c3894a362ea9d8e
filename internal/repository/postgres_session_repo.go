package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/gitquiz/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// FindBySID は指定sidのセッション行を取得する。
// 見つからない場合および期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindBySID(ctx context.Context, sid string) (*model.SessionRecord, error) {
	record := &model.SessionRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT sid, sess, expire
		 FROM sessions
		 WHERE sid = $1 AND expire > now()`,
		sid,
	).Scan(&record.SID, &record.Payload, &record.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return record, nil
}

// Upsert はセッション行を挿入または上書きする。
// 同一sidの書き込み競合はDB側で直列化され、last-write-winsで十分（クライアント単位で
// リクエスト/レスポンスが直列化されるため同一セッションの並行書き込みは通常発生しない）。
func (r *PostgresSessionRepo) Upsert(ctx context.Context, record *model.SessionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (sid, sess, expire)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expire = EXCLUDED.expire`,
		record.SID, record.Payload, record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// DeleteBySID は指定sidのセッション行を削除する。
// 存在しない行の削除はエラーにならない（冪等）。
func (r *PostgresSessionRepo) DeleteBySID(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE sid = $1`,
		sid,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れのセッション行を削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expire <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
