// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は求人票や応募書類として投稿されるHTMLを
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 求人の説明文・応募のカバーレターの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 求人票・カバーレターに必要な書式タグのみを許可するポリシーを構築する。
// script, iframe, style等は許可リストに含めないことで自動的に除去され、
// on*イベント属性はbluemondayのデフォルトで許可されない。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)

	// リンクは外部サイト（企業サイト・ポートフォリオ等）のみ想定:
	// - href属性を許可、相対URLは不許可
	// - target="_blank" と rel="noreferrer noopener" を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
