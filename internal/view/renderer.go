package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer は埋め込みテンプレートによるHTMLレンダリングを提供する。
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer は全テンプレートをパースしたRendererを生成する。
// テンプレートのパース失敗は起動時エラーとして扱う。
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"formatDate": FormatDate,
		"truncate":   Truncate,
		"stripTags":  StripTags,
		"editIcon":   EditIcon,
		"selected":   Select,
		"now":        time.Now,
	}

	tmpl, err := template.New("storypad").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render は指定の名前付きテンプレートを実行し、HTMLレスポンスを書き込む。
// 部分的なレスポンスを避けるため、バッファに書き込んでからフラッシュする。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
