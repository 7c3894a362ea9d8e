package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CookieName はセッションcookieの名前。
const CookieName = "session_id"

// ManagerConfig はセッションマネージャの設定。
type ManagerConfig struct {
	Secret       string // cookie署名用シークレット
	MaxAge       int    // セッション有効期間（秒）
	CookieSecure bool
	CookieDomain string
}

// Manager はセッションIDの発行とcookieの署名・検証を担う。
// cookie値は "<sid>.<base64url(HMAC-SHA256(secret, sid))>" の形式。
type Manager struct {
	config ManagerConfig
}

// NewManager はManagerを生成する。
func NewManager(config ManagerConfig) *Manager {
	return &Manager{config: config}
}

// NewSID は暗号的に安全なセッションIDを生成する。
// セッションを確立するすべての経路がこの生成器を共有する。
func NewSID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MaxAge はセッション有効期間（秒）を返す。
func (m *Manager) MaxAge() int {
	return m.config.MaxAge
}

// sign はsidのHMAC-SHA256署名を計算する。
func (m *Manager) sign(sid string) string {
	mac := hmac.New(sha256.New, []byte(m.config.Secret))
	mac.Write([]byte(sid))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Sign は署名付きcookie値を生成する。
func (m *Manager) Sign(sid string) string {
	return sid + "." + m.sign(sid)
}

// Verify は署名付きcookie値を検証し、sidを取り出す。
// 署名が一致しない場合や形式が不正な場合はエラーを返す。
func (m *Manager) Verify(value string) (string, error) {
	sid, sig, ok := strings.Cut(value, ".")
	if !ok || sid == "" {
		return "", fmt.Errorf("malformed session cookie")
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(sid))) {
		return "", fmt.Errorf("session cookie signature mismatch")
	}
	return sid, nil
}

// SetCookie は署名付きセッションcookieをレスポンスに設定する。
func (m *Manager) SetCookie(w http.ResponseWriter, sid string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.Sign(sid),
		Path:     "/",
		Domain:   m.config.CookieDomain,
		Expires:  expires,
		MaxAge:   m.config.MaxAge,
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie はセッションcookieをクライアントから削除する。
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SIDFromRequest はリクエストのcookieから検証済みsidを取り出す。
// cookieが存在しない場合や署名が不正な場合は空文字列を返す。
func (m *Manager) SIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sid, err := m.Verify(cookie.Value)
	if err != nil {
		return ""
	}
	return sid
}
