package security

import "github.com/microcosm-cc/bluemonday"

// BioSanitizerService はプロファイルbioのサニタイズ機能のインターフェースを定義する。
// 外部IdPから取得したbioはプレーンテキストとして扱い、保存前にHTMLをすべて除去する。
type BioSanitizerService interface {
	// Sanitize はbioからすべてのHTMLタグとイベント属性を除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// bioSanitizer はBioSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type bioSanitizer struct {
	policy *bluemonday.Policy
}

// NewBioSanitizer はBioSanitizerServiceの新しいインスタンスを生成する。
func NewBioSanitizer() *bioSanitizer {
	return &bioSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はbioからHTMLを除去してプレーンテキストを返す。
func (s *bioSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// compile-time interface check
var _ BioSanitizerService = (*bioSanitizer)(nil)
