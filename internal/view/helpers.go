// Package view はHTMLテンプレートのレンダリングと表示用ヘルパーを提供する。
//
// ヘルパーはすべて必要な値を明示的な引数として受け取る純粋関数であり、
// リクエストやセッションの状態に暗黙的にアクセスしない。
package view

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy は全HTMLタグを除去するbluemondayポリシー。
// ポリシーは並行利用に対して安全なため、パッケージ初期化時に1回だけ構築する。
var stripPolicy = bluemonday.StrictPolicy()

// FormatDate は日時を指定のGoレイアウトで整形する。
func FormatDate(t time.Time, layout string) string {
	return t.Format(layout)
}

// Truncate は文字列を最大n文字に切り詰める。
// 切り詰めた場合は末尾に"..."を付与する。マルチバイト文字を壊さない。
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// StripTags は文字列から全HTMLタグを除去する。
// 一覧表示での本文抜粋に使用する。
func StripTags(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}

// EditIcon はストーリーの所有者が閲覧している場合のみ編集リンクのHTMLを返す。
// 非所有者には空文字列を返す。比較は識別子の文字列一致。
func EditIcon(ownerID, viewerID, storyID string) template.HTML {
	if ownerID == "" || ownerID != viewerID {
		return ""
	}
	href := template.HTMLEscapeString("/stories/edit/" + storyID)
	return template.HTML(fmt.Sprintf(`<a href="%s" class="edit-icon">編集</a>`, href))
}

// Select は値が選択中の値と一致する場合にselected属性を返す。
// フォームのoption要素で現在値を選択状態にするために使用する。
func Select(value, selected string) template.HTMLAttr {
	if value == selected {
		return template.HTMLAttr(`selected`)
	}
	return ""
}
