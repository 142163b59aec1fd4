package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>当社はバックエンドエンジニアを募集しています。</p>",
			wantContains: []string{"<p>当社はバックエンドエンジニアを募集しています。</p>"},
		},
		{
			name:         "brタグが許可される",
			input:        "業務内容<br>API開発",
			wantContains: []string{"<br>", "業務内容", "API開発"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com/careers">採用ページ</a>`,
			wantContains: []string{"<a", "href", "https://example.com/careers", "採用ページ", "</a>"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>Go経験3年以上</li><li>PostgreSQL</li></ul>",
			wantContains: []string{"<ul>", "<li>", "Go経験3年以上", "PostgreSQL", "</li>", "</ul>"},
		},
		{
			name:         "olタグとliタグが許可される",
			input:        "<ol><li>書類選考</li><li>技術面接</li></ol>",
			wantContains: []string{"<ol>", "<li>", "書類選考", "技術面接", "</li>", "</ol>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>社員の声</blockquote>",
			wantContains: []string{"<blockquote>社員の声</blockquote>"},
		},
		{
			name:         "strongタグが許可される",
			input:        "<strong>必須要件</strong>",
			wantContains: []string{"<strong>必須要件</strong>"},
		},
		{
			name:         "emタグが許可される",
			input:        "<em>歓迎要件</em>",
			wantContains: []string{"<em>歓迎要件</em>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenTags は禁止タグが除去されることを検証する。
func TestSanitize_ForbiddenTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグが除去される",
			input:        `<p>募集要項</p><script>alert('xss')</script><p>待遇</p>`,
			wantAbsent:   []string{"<script", "</script>", "alert"},
			wantContains: []string{"募集要項", "待遇"},
		},
		{
			name:         "iframeタグが除去される",
			input:        `<p>募集要項</p><iframe src="https://evil.com"></iframe>`,
			wantAbsent:   []string{"<iframe", "</iframe>", "evil.com"},
			wantContains: []string{"募集要項"},
		},
		{
			name:         "styleタグが除去される",
			input:        `<p>募集要項</p><style>body{display:none}</style>`,
			wantAbsent:   []string{"<style", "</style>", "display:none"},
			wantContains: []string{"募集要項"},
		},
		{
			name:         "imgタグが除去される",
			input:        `<p>募集要項</p><img src="https://example.com/logo.png" alt="ロゴ">`,
			wantAbsent:   []string{"<img", "logo.png"},
			wantContains: []string{"募集要項"},
		},
		{
			name:         "許可されていないタグ（div）が除去される",
			input:        `<div><p>募集要項</p></div>`,
			wantAbsent:   []string{"<div", "</div>"},
			wantContains: []string{"<p>募集要項</p>"},
		},
		{
			name:         "許可されていないタグ（span）が除去される",
			input:        `<span>募集要項</span>`,
			wantAbsent:   []string{"<span", "</span>"},
			wantContains: []string{"募集要項"},
		},
		{
			name:       "許可されていないタグ（form）が除去される",
			input:      `<form action="https://evil.com"><input type="text"></form>`,
			wantAbsent: []string{"<form", "</form>", "<input"},
		},
		{
			name:       "objectタグが除去される",
			input:      `<object data="https://evil.com/flash.swf"></object>`,
			wantAbsent: []string{"<object", "</object>", "flash.swf"},
		},
		{
			name:       "embedタグが除去される",
			input:      `<embed src="https://evil.com/plugin">`,
			wantAbsent: []string{"<embed", "plugin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_OnEventAttributes はon*イベント属性が除去されることを検証する。
func TestSanitize_OnEventAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{
			name:       "onclickが除去される",
			input:      `<p onclick="alert('xss')">募集要項</p>`,
			wantAbsent: []string{"onclick", "alert"},
		},
		{
			name:       "onmouseoverが除去される",
			input:      `<a href="https://example.com" onmouseover="alert('xss')">リンク</a>`,
			wantAbsent: []string{"onmouseover", "alert"},
		},
		{
			name:       "onfocusが除去される",
			input:      `<a href="https://example.com" onfocus="alert('xss')">リンク</a>`,
			wantAbsent: []string{"onfocus", "alert"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_AnchorAttributes はaタグにtarget="_blank"とrel="noopener noreferrer"が自動付与されることを検証する。
func TestSanitize_AnchorAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:  "aタグにtarget=_blankが付与される",
			input: `<a href="https://example.com/portfolio">ポートフォリオ</a>`,
			wantContains: []string{
				`target="_blank"`,
				"https://example.com/portfolio",
				"ポートフォリオ",
			},
		},
		{
			name:  "aタグにrel=noopener noreferrerが付与される",
			input: `<a href="https://example.com">リンク</a>`,
			wantContains: []string{
				"noopener",
				"noreferrer",
			},
		},
		{
			name:  "既存のtargetが上書きされる",
			input: `<a href="https://example.com" target="_self">リンク</a>`,
			wantContains: []string{
				`target="_blank"`,
			},
		},
		{
			name:  "既存のrelが上書きされる",
			input: `<a href="https://example.com" rel="nofollow">リンク</a>`,
			wantContains: []string{
				"noopener",
				"noreferrer",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_EmptyInput は空文字列の入力を安全に処理できることを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.Sanitize("")
	if got != "" {
		t.Errorf("Sanitize(\"\") = %q, expected empty string", got)
	}
}

// TestSanitize_PlainText はプレーンテキストがそのまま通過することを検証する。
func TestSanitize_PlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := "志望動機: 貴社のプロダクトに共感したため応募いたしました。"
	got := sanitizer.Sanitize(input)
	if got != input {
		t.Errorf("Sanitize(%q) = %q, expected unchanged", input, got)
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力（冪等性）を検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>募集要項<strong>必須</strong></p><a href="https://example.com">会社概要</a>`

	result1 := sanitizer.Sanitize(input)
	result2 := sanitizer.Sanitize(input)
	result3 := sanitizer.Sanitize(result1) // 二重サニタイズ

	if result1 != result2 {
		t.Errorf("冪等性違反: 1回目=%q, 2回目=%q", result1, result2)
	}
	if result1 != result3 {
		t.Errorf("二重サニタイズで結果が変わった: 1回目=%q, 二重=%q", result1, result3)
	}
}

// TestSanitize_ComplexHTML は複合的なHTMLコンテンツのサニタイズを検証する。
func TestSanitize_ComplexHTML(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<div class="job-description">
<h1>バックエンドエンジニア募集</h1>
<p>私たちは<strong>成長中の</strong>チームです。</p>
<script>document.cookie</script>
<ul>
<li>Go経験3年以上</li>
<li>PostgreSQLの運用経験</li>
</ul>
<a href="https://example.com/careers" onclick="steal()">採用ページ</a>
<iframe src="https://evil.com"></iframe>
<style>.hidden{display:none}</style>
<blockquote>社員の声</blockquote>
</div>`

	got := sanitizer.Sanitize(input)

	// 許可タグが存在すること
	allowedParts := []string{
		"<p>", "</p>",
		"<strong>", "</strong>",
		"<ul>", "</ul>",
		"<li>", "</li>",
		"<blockquote>", "</blockquote>",
		"採用ページ",
		"社員の声",
	}
	for _, part := range allowedParts {
		if !strings.Contains(got, part) {
			t.Errorf("結果に %q が含まれていない: %q", part, got)
		}
	}

	// 禁止要素が除去されていること
	forbiddenParts := []string{
		"<script", "</script>",
		"<iframe", "</iframe>",
		"<style", "</style>",
		"<div", "</div>",
		"<h1", "</h1>",
		"onclick",
		"document.cookie",
		"steal()",
		"display:none",
		"evil.com",
	}
	for _, part := range forbiddenParts {
		if strings.Contains(got, part) {
			t.Errorf("結果に禁止要素 %q が含まれている: %q", part, got)
		}
	}

	// aタグにtarget=_blankとrelが付与されていること
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("aタグにtarget=\"_blank\"が付与されていない: %q", got)
	}
	if !strings.Contains(got, "noopener") {
		t.Errorf("aタグにnoopenerが付与されていない: %q", got)
	}
	if !strings.Contains(got, "noreferrer") {
		t.Errorf("aタグにnoreferrerが付与されていない: %q", got)
	}
}

// TestSanitize_XSSPayloads は典型的なXSSペイロードが無害化されることを検証する。
func TestSanitize_XSSPayloads(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{
			name:       "SVG onloadによるXSS",
			input:      `<svg onload="alert('xss')">`,
			wantAbsent: []string{"<svg", "onload", "alert"},
		},
		{
			name:       "img onerrorによるXSS",
			input:      `<img src="x" onerror="alert('xss')">`,
			wantAbsent: []string{"<img", "onerror", "alert"},
		},
		{
			name:       "javascript URI",
			input:      `<a href="javascript:alert('xss')">クリック</a>`,
			wantAbsent: []string{"javascript:"},
		},
		{
			name:       "data URIでのスクリプト",
			input:      `<a href="data:text/html,<script>alert('xss')</script>">データ</a>`,
			wantAbsent: []string{"data:text/html"},
		},
		{
			name:       "style属性によるXSS",
			input:      `<p style="background:url(javascript:alert('xss'))">テスト</p>`,
			wantAbsent: []string{"style=", "background:", "javascript:"},
		},
		{
			name:       "イベントハンドラの大文字混在",
			input:      `<p OnClick="alert('xss')">テスト</p>`,
			wantAbsent: []string{"OnClick", "onclick", "alert"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(strings.ToLower(got), strings.ToLower(absent)) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q (case-insensitive)", tt.input, got, absent)
				}
			}
		})
	}
}

// TestContentSanitizerInterface はContentSanitizerServiceインターフェースの適合を検証する。
func TestContentSanitizerInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
