package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/gitquiz/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, github_id, github_username, github_token, name, avatar_url, bio, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.GitHubID, &user.GitHubUsername, &user.GitHubToken,
		&user.Name, &user.AvatarURL, &user.Bio, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByGitHubID はGitHub IDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, github_id, github_username, github_token, name, avatar_url, bio, created_at, updated_at
		 FROM users WHERE github_id = $1`,
		githubID,
	).Scan(&user.ID, &user.GitHubID, &user.GitHubUsername, &user.GitHubToken,
		&user.Name, &user.AvatarURL, &user.Bio, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by GitHub ID: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, github_id, github_username, github_token, name, avatar_url, bio, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.GitHubID, user.GitHubUsername, user.GitHubToken,
		user.Name, user.AvatarURL, user.Bio, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateLogin はログイン成功時にアクセストークンと表示用フィールドを更新する。
// WHERE句はローカルIDで固定し、github_idは更新対象に含めない。
func (r *PostgresUserRepo) UpdateLogin(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET github_token = $2, github_username = $3, name = $4, avatar_url = $5, bio = $6, updated_at = $7
		 WHERE id = $1`,
		user.ID, user.GitHubToken, user.GitHubUsername, user.Name, user.AvatarURL, user.Bio, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user login: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
