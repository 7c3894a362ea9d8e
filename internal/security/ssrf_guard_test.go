package security

import (
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicHTTPS(t *testing.T) {
	g := NewSSRFGuard()

	valid := []string{
		"https://api.github.com/repos/x/y/git/blobs/abc",
		"https://raw.githubusercontent.com/x/y/main/index.js",
		"http://93.184.216.34/blob",
	}
	for _, u := range valid {
		if err := g.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_BlocksPrivateAndMetadata(t *testing.T) {
	g := NewSSRFGuard()

	blocked := []string{
		"http://10.0.0.5/",
		"http://172.16.1.1/",
		"http://192.168.1.1/admin",
		"http://127.0.0.1:80/",
		"http://169.254.169.254/latest/meta-data/",
		"http://0.0.0.0/",
		"http://[::1]/",
		"http://[fe80::1]/",
		"http://localhost/",
		"http://LOCALHOST/",
	}
	for _, u := range blocked {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestValidateURL_RejectsBadInput(t *testing.T) {
	g := NewSSRFGuard()

	invalid := []string{
		"",
		"ftp://example.com/file",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"https://",
	}
	for _, u := range invalid {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestNewSafeClient_ReturnsConfiguredClient(t *testing.T) {
	g := NewSSRFGuard()

	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient returned nil")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
}
