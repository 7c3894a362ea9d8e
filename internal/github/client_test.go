package github

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- モック定義 ---

type mockCallRecorder struct {
	calls     []recordedCall
	latencies []string
}

type recordedCall struct {
	operation string
	success   bool
}

func (m *mockCallRecorder) RecordGitHubCall(operation string, success bool) {
	m.calls = append(m.calls, recordedCall{operation: operation, success: success})
}

func (m *mockCallRecorder) RecordGitHubLatency(operation string, duration time.Duration) {
	m.latencies = append(m.latencies, operation)
}

var _ CallRecorder = (*mockCallRecorder)(nil)

// --- テスト ---

func testClient(serverURL string) *Client {
	c := NewClient(http.DefaultClient, nil, slog.Default(), nil)
	c.SetBaseURL(serverURL)
	return c
}

func TestListUserRepos_ProjectsPublicFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/ada/repos" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/users/ada/repos")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gho_token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": 7,
			"name": "engine",
			"description": "analytical engine",
			"html_url": "https://github.com/ada/engine",
			"language": "JavaScript",
			"stargazers_count": 12,
			"forks_count": 3,
			"watchers_count": 12,
			"created_at": "2020-01-01T00:00:00Z",
			"updated_at": "2021-01-01T00:00:00Z",
			"topics": ["math"],
			"private": false,
			"ssh_url": "git@github.com:ada/engine.git"
		}]`))
	}))
	defer server.Close()

	repos, err := testClient(server.URL).ListUserRepos(context.Background(), "gho_token", "ada")
	if err != nil {
		t.Fatalf("ListUserRepos failed: %v", err)
	}

	if len(repos) != 1 {
		t.Fatalf("len(repos) = %d, want 1", len(repos))
	}
	r := repos[0]
	if r.ID != 7 || r.Name != "engine" || r.URL != "https://github.com/ada/engine" {
		t.Errorf("unexpected projection: %+v", r)
	}
	if r.Stars != 12 || r.Forks != 3 || r.Watchers != 12 {
		t.Errorf("unexpected counts: %+v", r)
	}
	if len(r.Topics) != 1 || r.Topics[0] != "math" {
		t.Errorf("Topics = %v, want [math]", r.Topics)
	}
}

func TestListUserRepos_ErrorStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "rate limit exceeded"}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).ListUserRepos(context.Background(), "gho_token", "ada"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestListBranches_ReturnsBranchSHAs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/ada/engine/branches" {
			t.Errorf("path = %q, want branches endpoint", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name": "main", "commit": {"sha": "abc123"}}]`))
	}))
	defer server.Close()

	branches, err := testClient(server.URL).ListBranches(context.Background(), "gho_token", "ada", "engine")
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if len(branches) != 1 || branches[0].Commit.SHA != "abc123" {
		t.Errorf("branches = %+v, want main@abc123", branches)
	}
}

func TestGetTree_RequestsRecursive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("recursive") != "true" {
			t.Errorf("recursive = %q, want true", r.URL.Query().Get("recursive"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sha": "abc123", "tree": [
			{"path": "index.js", "type": "blob", "url": "https://example.com/blob/1"},
			{"path": "lib", "type": "tree", "url": "https://example.com/tree/2"}
		]}`))
	}))
	defer server.Close()

	tree, err := testClient(server.URL).GetTree(context.Background(), "gho_token", "ada", "engine", "abc123")
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}
	if len(tree.Tree) != 2 {
		t.Fatalf("len(tree.Tree) = %d, want 2", len(tree.Tree))
	}
	if tree.Tree[0].Path != "index.js" || tree.Tree[0].Type != "blob" {
		t.Errorf("unexpected first entry: %+v", tree.Tree[0])
	}
}

func TestGetBlobContent_DecodesBase64(t *testing.T) {
	content := "console.log('hello');\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// GitHubはbase64に改行を挟んで返す
		w.Write([]byte(`{"content": "` + encoded[:10] + `\n` + encoded[10:] + `", "encoding": "base64"}`))
	}))
	defer server.Close()

	decoded, err := testClient(server.URL).GetBlobContent(context.Background(), "gho_token", server.URL+"/blob/1")
	if err != nil {
		t.Fatalf("GetBlobContent failed: %v", err)
	}
	if string(decoded) != content {
		t.Errorf("decoded = %q, want %q", decoded, content)
	}
}

func TestClient_RecordsCallMetricsPerOperation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/ada/engine/branches" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"name": "main", "commit": {"sha": "abc123"}}]`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "rate limit exceeded"}`))
	}))
	defer server.Close()

	recorder := &mockCallRecorder{}
	c := NewClient(http.DefaultClient, nil, slog.Default(), recorder)
	c.SetBaseURL(server.URL)

	if _, err := c.ListBranches(context.Background(), "gho_token", "ada", "engine"); err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if _, err := c.ListUserRepos(context.Background(), "gho_token", "ada"); err == nil {
		t.Fatal("expected error for non-200 response")
	}

	if len(recorder.calls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(recorder.calls))
	}
	if recorder.calls[0].operation != "list_branches" || !recorder.calls[0].success {
		t.Errorf("first call = %+v, want successful list_branches", recorder.calls[0])
	}
	if recorder.calls[1].operation != "list_repos" || recorder.calls[1].success {
		t.Errorf("second call = %+v, want failed list_repos", recorder.calls[1])
	}

	// レイテンシも呼び出しごとに記録されること
	if len(recorder.latencies) != 2 {
		t.Errorf("recorded %d latencies, want 2", len(recorder.latencies))
	}
}

func TestGetBlobContent_UnexpectedEncoding_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": "plain text", "encoding": "utf-8"}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).GetBlobContent(context.Background(), "gho_token", server.URL+"/blob/1"); err == nil {
		t.Fatal("expected error for non-base64 encoding")
	}
}
