// Package quiz はリポジトリのソースからクイズ質問を生成する。
// 現状の生成ロジックはプレースホルダーであり、ソースの収集パイプラインのみ実装されている。
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/gitquiz/internal/github"
	"github.com/hitoshi/gitquiz/internal/model"
)

// RepoSource はクイズ生成に必要なGitHub API操作のインターフェース。
// github.Clientの部分集合として定義する。
type RepoSource interface {
	ListBranches(ctx context.Context, token, owner, repo string) ([]github.Branch, error)
	GetTree(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error)
	GetBlobContent(ctx context.Context, token, blobURL string) ([]byte, error)
}

// URLValidator はblob URLの取得前検証のインターフェース。
// security.SSRFGuardServiceの部分集合として定義する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Service はクイズ質問の生成を提供する。
type Service struct {
	source    RepoSource
	validator URLValidator // nil可
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(source RepoSource, validator URLValidator, logger *slog.Logger) *Service {
	return &Service{
		source:    source,
		validator: validator,
		logger:    logger,
	}
}

// GenerateQuestions は指定リポジトリのJavaScriptソースを収集し、クイズ質問を返す。
// 先頭ブランチのHEADからツリーを再帰取得し、.jsのblobをすべてダウンロードする。
// TODO: 収集したソースをプロンプトに組み立ててLLMに質問を生成させる。
// それまでは固定のモック質問を返す。
func (s *Service) GenerateQuestions(ctx context.Context, user *model.User, repo string) ([]string, error) {
	branches, err := s.source.ListBranches(ctx, user.GitHubToken, user.GitHubUsername, repo)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("cannot get branches data")
	}

	latestSHA := branches[0].Commit.SHA
	tree, err := s.source.GetTree(ctx, user.GitHubToken, user.GitHubUsername, repo, latestSHA)
	if err != nil {
		return nil, err
	}
	if len(tree.Tree) == 0 {
		return nil, fmt.Errorf("cannot get tree data")
	}

	var filesCount int
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || !strings.HasSuffix(entry.Path, ".js") || entry.URL == "" {
			continue
		}
		// blob URLは外部APIレスポンス由来のため、取得前に安全性を検証する
		if s.validator != nil {
			if err := s.validator.ValidateURL(entry.URL); err != nil {
				return nil, fmt.Errorf("unsafe blob URL for %s: %w", entry.Path, err)
			}
		}
		if _, err := s.source.GetBlobContent(ctx, user.GitHubToken, entry.URL); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", entry.Path, err)
		}
		filesCount++
	}

	s.logger.Info("collected quiz source files",
		slog.String("repo", repo),
		slog.String("branch_sha", latestSHA),
		slog.Int("js_files", filesCount),
	)

	return []string{"Some mock question"}, nil
}
