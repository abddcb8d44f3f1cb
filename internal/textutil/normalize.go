// Package textutil はプロジェクト名・エイリアス名の正規化を提供する。
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics はNFD分解で結合文字を分離し、除去してからNFCに戻す。
var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

var titleCaser = cases.Title(language.Und)

// Normalize はトリム・小文字化・ダイアクリティカルマーク除去を行った
// 比較用キーを返す。全域的かつ決定的であり、2つの名前が大文字小文字・
// アクセント・前後空白の違いしか持たない場合に限り同じキーになる。
func Normalize(name string) string {
	stripped, _, err := transform.String(stripDiacritics, name)
	if err != nil {
		// 変換不能な入力はそのまま小文字化のみ行う
		stripped = name
	}
	return strings.TrimSpace(strings.ToLower(stripped))
}

// DisplayName はカレンダーラベルから表示名を導出する。
// トリム後、全体が大文字の場合（頭字語）はそのまま、
// それ以外はタイトルケースに変換する。
func DisplayName(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return label
	}
	if IsFullUppercase(label) {
		return label
	}
	return titleCaser.String(label)
}

// IsFullUppercase は名前全体が大文字かどうかを返す。
func IsFullUppercase(name string) bool {
	return name == strings.ToUpper(name)
}
