// Package github はGitHub REST APIのクライアントを提供する。
// リポジトリ一覧の取得とクイズ生成に必要なブランチ・ツリー・blobの取得を含む。
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultBaseURL はGitHub REST APIのベースURL。
const defaultBaseURL = "https://api.github.com"

// メトリクスのoperationラベル値。
const (
	opListRepos    = "list_repos"
	opListBranches = "list_branches"
	opGetTree      = "get_tree"
	opGetBlob      = "get_blob"
)

// CallRecorder はGitHub API呼び出しの結果とレイテンシを記録するインターフェース。
// metrics.Collectorが実装する。
type CallRecorder interface {
	RecordGitHubCall(operation string, success bool)
	RecordGitHubLatency(operation string, duration time.Duration)
}

// Client はGitHub REST APIのクライアント。
// リクエストはユーザーごとに保存されたアクセストークンで認証する。
type Client struct {
	httpClient *http.Client
	// blobClient はツリーAPIレスポンス内のURLを辿る際に使用するクライアント。
	// URLが外部APIペイロード由来のため、SSRF防止付きクライアントを注入する。
	blobClient *http.Client
	logger     *slog.Logger
	metrics    CallRecorder // nil可
	baseURL    string       // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// blobClientがnilの場合はhttpClientをそのまま使用する。
// metricsがnilの場合は記録をスキップする。
func NewClient(httpClient, blobClient *http.Client, logger *slog.Logger, metrics CallRecorder) *Client {
	if blobClient == nil {
		blobClient = httpClient
	}
	return &Client{
		httpClient: httpClient,
		blobClient: blobClient,
		logger:     logger,
		metrics:    metrics,
		baseURL:    defaultBaseURL,
	}
}

// SetBaseURL はAPIエンドポイントを差し替える。テスト専用。
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Repo はリポジトリの公開フィールドのみに射影したレスポンス。
type Repo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Language    string   `json:"language"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Watchers    int      `json:"watchers"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	Topics      []string `json:"topics"`
}

// apiRepo はGitHub APIのリポジトリレスポンス。
type apiRepo struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	HTMLURL         string   `json:"html_url"`
	Language        string   `json:"language"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	WatchersCount   int      `json:"watchers_count"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	Topics          []string `json:"topics"`
}

// Branch はブランチ情報を表す。
type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// TreeEntry はgitツリーの1エントリを表す。
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Tree はgitツリーを表す。
type Tree struct {
	SHA  string      `json:"sha"`
	Tree []TreeEntry `json:"tree"`
}

// ListUserRepos は指定ユーザーの公開リポジトリ一覧を取得し、公開フィールドに射影して返す。
func (c *Client) ListUserRepos(ctx context.Context, token, username string) ([]Repo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos", c.baseURL, url.PathEscape(username))

	var apiRepos []apiRepo
	if err := c.getJSON(ctx, c.httpClient, token, opListRepos, endpoint, &apiRepos); err != nil {
		return nil, fmt.Errorf("failed to list repos for %s: %w", username, err)
	}

	repos := make([]Repo, 0, len(apiRepos))
	for _, r := range apiRepos {
		repos = append(repos, Repo{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			URL:         r.HTMLURL,
			Language:    r.Language,
			Stars:       r.StargazersCount,
			Forks:       r.ForksCount,
			Watchers:    r.WatchersCount,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			Topics:      r.Topics,
		})
	}
	return repos, nil
}

// ListBranches は指定リポジトリのブランチ一覧を取得する。
func (c *Client) ListBranches(ctx context.Context, token, owner, repo string) ([]Branch, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/branches",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	var branches []Branch
	if err := c.getJSON(ctx, c.httpClient, token, opListBranches, endpoint, &branches); err != nil {
		return nil, fmt.Errorf("failed to list branches for %s/%s: %w", owner, repo, err)
	}
	return branches, nil
}

// GetTree は指定コミットのgitツリーを再帰的に取得する。
func (c *Client) GetTree(ctx context.Context, token, owner, repo, treeSHA string) (*Tree, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=true",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(treeSHA))

	tree := &Tree{}
	if err := c.getJSON(ctx, c.httpClient, token, opGetTree, endpoint, tree); err != nil {
		return nil, fmt.Errorf("failed to get tree %s: %w", treeSHA, err)
	}
	return tree, nil
}

// blobResponse はblob APIのレスポンス。contentはbase64エンコードされている。
type blobResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetBlobContent はツリーエントリのblob URLからファイル内容を取得してデコードする。
// blob URLはAPIレスポンス由来のため、SSRF防止付きクライアントで取得する。
func (c *Client) GetBlobContent(ctx context.Context, token, blobURL string) ([]byte, error) {
	var blob blobResponse
	if err := c.getJSON(ctx, c.blobClient, token, opGetBlob, blobURL, &blob); err != nil {
		return nil, fmt.Errorf("failed to fetch blob: %w", err)
	}

	if blob.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected blob encoding: %s", blob.Encoding)
	}

	// GitHubはbase64に改行を挟んで返す
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob content: %w", err)
	}
	return decoded, nil
}

// getJSON はGETリクエストを実行し、レスポンスJSONをデコードする。
// 呼び出しの結果とレイテンシをoperationラベル付きでメトリクスに記録する。
func (c *Client) getJSON(ctx context.Context, client *http.Client, token, operation, endpoint string, v interface{}) error {
	start := time.Now()
	err := c.doGetJSON(ctx, client, token, endpoint, v)
	if c.metrics != nil {
		c.metrics.RecordGitHubLatency(operation, time.Since(start))
		c.metrics.RecordGitHubCall(operation, err == nil)
	}
	return err
}

func (c *Client) doGetJSON(ctx context.Context, client *http.Client, token, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "gitquiz/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error("github api request failed",
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("github api returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("github api returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse github response: %w", err)
	}
	return nil
}
