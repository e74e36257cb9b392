package avatar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// --- モック ---

type mockSSRFValidator struct {
	validateURLFn func(rawURL string) error
}

func (m *mockSSRFValidator) ValidateURL(rawURL string) error {
	if m.validateURLFn != nil {
		return m.validateURLFn(rawURL)
	}
	return nil
}

func (m *mockSSRFValidator) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// --- テスト ---

// TestFetcher_Fetch_Success は画像の取得とMIMEタイプの抽出を検証する。
func TestFetcher_Fetch_Success(t *testing.T) {
	imageData := []byte("fake-png-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(imageData)
	}))
	defer server.Close()

	f := NewFetcher(&mockSSRFValidator{}, FetcherConfig{})

	data, mime := f.Fetch(context.Background(), server.URL)

	if string(data) != string(imageData) {
		t.Errorf("data = %q, want %q", data, imageData)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want %q", mime, "image/png")
	}
}

// TestFetcher_Fetch_StripsCharsetFromContentType はContent-Typeの
// パラメータが除去されることを検証する。
func TestFetcher_Fetch_StripsCharsetFromContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=utf-8")
		w.Write([]byte("jpg"))
	}))
	defer server.Close()

	f := NewFetcher(&mockSSRFValidator{}, FetcherConfig{})

	_, mime := f.Fetch(context.Background(), server.URL)
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want %q", mime, "image/jpeg")
	}
}

// TestFetcher_Fetch_EmptyURL は空URLで即座に縮退することを検証する。
func TestFetcher_Fetch_EmptyURL(t *testing.T) {
	f := NewFetcher(&mockSSRFValidator{}, FetcherConfig{})

	data, mime := f.Fetch(context.Background(), "")
	if data != nil || mime != "" {
		t.Errorf("expected nil data and empty mime, got %v %q", data, mime)
	}
}

// TestFetcher_Fetch_BlockedBySSRFGuard はSSRF検証に失敗したURLが
// 取得されないことを検証する。
func TestFetcher_Fetch_BlockedBySSRFGuard(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	guard := &mockSSRFValidator{
		validateURLFn: func(rawURL string) error {
			return errors.New("private address blocked")
		},
	}
	f := NewFetcher(guard, FetcherConfig{})

	data, mime := f.Fetch(context.Background(), server.URL)
	if data != nil || mime != "" {
		t.Errorf("expected degraded result, got %v %q", data, mime)
	}
	if requested {
		t.Error("blocked URL should not be requested")
	}
}

// TestFetcher_Fetch_NonImageContentType は画像以外のレスポンスが
// 破棄されることを検証する。
func TestFetcher_Fetch_NonImageContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	f := NewFetcher(&mockSSRFValidator{}, FetcherConfig{})

	data, mime := f.Fetch(context.Background(), server.URL)
	if data != nil || mime != "" {
		t.Errorf("expected degraded result for non-image, got %v %q", data, mime)
	}
}

// TestFetcher_Fetch_ErrorStatus は2xx以外のステータスで縮退することを検証する。
func TestFetcher_Fetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(&mockSSRFValidator{}, FetcherConfig{})

	data, _ := f.Fetch(context.Background(), server.URL)
	if data != nil {
		t.Errorf("expected nil data for 404, got %d bytes", len(data))
	}
}

// TestFetcher_Fetch_TooLarge はサイズ上限を超えるレスポンスが
// 破棄されることを検証する。
func TestFetcher_Fetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	f := NewFetcher(&mockSSRFValidator{}, FetcherConfig{MaxSize: 10})

	data, _ := f.Fetch(context.Background(), server.URL)
	if data != nil {
		t.Errorf("expected nil data for oversized response, got %d bytes", len(data))
	}
}

// TestExtractMimeType はContent-Typeヘッダーの正規化を検証する。
func TestExtractMimeType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "image/png"},
		{"IMAGE/PNG", "image/png"},
		{"image/jpeg; charset=utf-8", "image/jpeg"},
		{" image/gif ", "image/gif"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := extractMimeType(tt.contentType); got != tt.want {
			t.Errorf("extractMimeType(%q) = %q, want %q", tt.contentType, got, tt.want)
		}
	}
}
