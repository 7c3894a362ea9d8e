package quiz

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hitoshi/gitquiz/internal/github"
	"github.com/hitoshi/gitquiz/internal/model"
)

// --- モック定義 ---

type mockRepoSource struct {
	listBranchesFn   func(ctx context.Context, token, owner, repo string) ([]github.Branch, error)
	getTreeFn        func(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error)
	getBlobContentFn func(ctx context.Context, token, blobURL string) ([]byte, error)
}

func (m *mockRepoSource) ListBranches(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
	if m.listBranchesFn != nil {
		return m.listBranchesFn(ctx, token, owner, repo)
	}
	return nil, nil
}

func (m *mockRepoSource) GetTree(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error) {
	if m.getTreeFn != nil {
		return m.getTreeFn(ctx, token, owner, repo, treeSHA)
	}
	return nil, nil
}

func (m *mockRepoSource) GetBlobContent(ctx context.Context, token, blobURL string) ([]byte, error) {
	if m.getBlobContentFn != nil {
		return m.getBlobContentFn(ctx, token, blobURL)
	}
	return nil, nil
}

var _ RepoSource = (*mockRepoSource)(nil)

type mockURLValidator struct {
	validateURLFn func(rawURL string) error
}

func (m *mockURLValidator) ValidateURL(rawURL string) error {
	if m.validateURLFn != nil {
		return m.validateURLFn(rawURL)
	}
	return nil
}

var _ URLValidator = (*mockURLValidator)(nil)

func branch(sha string) github.Branch {
	var b github.Branch
	b.Name = "main"
	b.Commit.SHA = sha
	return b
}

func testUser() *model.User {
	return &model.User{
		ID:             "local-id-1",
		GitHubUsername: "ada",
		GitHubToken:    "gho_token",
	}
}

// --- テスト ---

func TestGenerateQuestions_CollectsJSBlobsAndReturnsPlaceholder(t *testing.T) {
	var fetchedURLs []string

	source := &mockRepoSource{
		listBranchesFn: func(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
			return []github.Branch{branch("abc123")}, nil
		},
		getTreeFn: func(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error) {
			if treeSHA != "abc123" {
				t.Errorf("treeSHA = %q, want first branch head", treeSHA)
			}
			return &github.Tree{Tree: []github.TreeEntry{
				{Path: "index.js", Type: "blob", URL: "https://example.com/blob/1"},
				{Path: "README.md", Type: "blob", URL: "https://example.com/blob/2"},
				{Path: "lib", Type: "tree", URL: "https://example.com/tree/3"},
				{Path: "lib/util.js", Type: "blob", URL: "https://example.com/blob/4"},
			}}, nil
		},
		getBlobContentFn: func(ctx context.Context, token, blobURL string) ([]byte, error) {
			fetchedURLs = append(fetchedURLs, blobURL)
			return []byte("console.log('x');"), nil
		},
	}

	svc := NewService(source, nil, slog.Default())

	questions, err := svc.GenerateQuestions(context.Background(), testUser(), "engine")
	if err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}

	if len(questions) != 1 || questions[0] != "Some mock question" {
		t.Errorf("questions = %v, want placeholder question", questions)
	}

	// .jsのblobのみがダウンロードされること
	if len(fetchedURLs) != 2 {
		t.Fatalf("fetched %d blobs, want 2", len(fetchedURLs))
	}
	if fetchedURLs[0] != "https://example.com/blob/1" || fetchedURLs[1] != "https://example.com/blob/4" {
		t.Errorf("fetched URLs = %v", fetchedURLs)
	}
}

func TestGenerateQuestions_NoBranches_ReturnsError(t *testing.T) {
	source := &mockRepoSource{
		listBranchesFn: func(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
			return []github.Branch{}, nil
		},
	}

	svc := NewService(source, nil, slog.Default())

	if _, err := svc.GenerateQuestions(context.Background(), testUser(), "engine"); err == nil {
		t.Fatal("expected error for repo without branches")
	}
}

func TestGenerateQuestions_EmptyTree_ReturnsError(t *testing.T) {
	source := &mockRepoSource{
		listBranchesFn: func(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
			return []github.Branch{branch("abc123")}, nil
		},
		getTreeFn: func(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error) {
			return &github.Tree{}, nil
		},
	}

	svc := NewService(source, nil, slog.Default())

	if _, err := svc.GenerateQuestions(context.Background(), testUser(), "engine"); err == nil {
		t.Fatal("expected error for empty tree")
	}
}

func TestGenerateQuestions_ValidatesBlobURLsBeforeFetch(t *testing.T) {
	var validatedURLs []string
	var fetched bool

	source := &mockRepoSource{
		listBranchesFn: func(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
			return []github.Branch{branch("abc123")}, nil
		},
		getTreeFn: func(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error) {
			return &github.Tree{Tree: []github.TreeEntry{
				{Path: "index.js", Type: "blob", URL: "https://example.com/blob/1"},
			}}, nil
		},
		getBlobContentFn: func(ctx context.Context, token, blobURL string) ([]byte, error) {
			fetched = true
			return []byte("console.log('x');"), nil
		},
	}
	validator := &mockURLValidator{
		validateURLFn: func(rawURL string) error {
			validatedURLs = append(validatedURLs, rawURL)
			return nil
		},
	}

	svc := NewService(source, validator, slog.Default())

	if _, err := svc.GenerateQuestions(context.Background(), testUser(), "engine"); err != nil {
		t.Fatalf("GenerateQuestions failed: %v", err)
	}

	if len(validatedURLs) != 1 || validatedURLs[0] != "https://example.com/blob/1" {
		t.Errorf("validated URLs = %v, want the blob URL", validatedURLs)
	}
	if !fetched {
		t.Error("expected blob fetch after validation")
	}
}

func TestGenerateQuestions_UnsafeBlobURL_AbortsWithoutFetch(t *testing.T) {
	var fetched bool

	source := &mockRepoSource{
		listBranchesFn: func(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
			return []github.Branch{branch("abc123")}, nil
		},
		getTreeFn: func(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error) {
			return &github.Tree{Tree: []github.TreeEntry{
				{Path: "evil.js", Type: "blob", URL: "http://169.254.169.254/latest/meta-data"},
			}}, nil
		},
		getBlobContentFn: func(ctx context.Context, token, blobURL string) ([]byte, error) {
			fetched = true
			return nil, nil
		},
	}
	validator := &mockURLValidator{
		validateURLFn: func(rawURL string) error {
			return errors.New("blocked IP address")
		},
	}

	svc := NewService(source, validator, slog.Default())

	if _, err := svc.GenerateQuestions(context.Background(), testUser(), "engine"); err == nil {
		t.Fatal("expected error for unsafe blob URL")
	}
	if fetched {
		t.Error("blob must not be fetched when validation fails")
	}
}

func TestGenerateQuestions_BlobFetchFailure_PropagatesError(t *testing.T) {
	source := &mockRepoSource{
		listBranchesFn: func(ctx context.Context, token, owner, repo string) ([]github.Branch, error) {
			return []github.Branch{branch("abc123")}, nil
		},
		getTreeFn: func(ctx context.Context, token, owner, repo, treeSHA string) (*github.Tree, error) {
			return &github.Tree{Tree: []github.TreeEntry{
				{Path: "index.js", Type: "blob", URL: "https://example.com/blob/1"},
			}}, nil
		},
		getBlobContentFn: func(ctx context.Context, token, blobURL string) ([]byte, error) {
			return nil, errors.New("blocked")
		},
	}

	svc := NewService(source, nil, slog.Default())

	if _, err := svc.GenerateQuestions(context.Background(), testUser(), "engine"); err == nil {
		t.Fatal("expected blob fetch failure to propagate")
	}
}
