package model

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError は入力検証の失敗を表す。
// フィールド名ごとにユーザー向けメッセージを保持し、
// フォームの再描画時にそのまま表示される。
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError は空のValidationErrorを生成する。
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add はフィールドの検証エラーを追加する。
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// HasErrors は1件以上のエラーを保持しているかどうかを返す。
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error はerrorインターフェースを実装する。
// フィールド名順に整形した一覧を返す。
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
