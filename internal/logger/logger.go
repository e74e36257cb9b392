// Package logger はJSON構造化ログのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// ログレベルはLOG_LEVEL環境変数（debug/info/warn/error）で制御し、
// 未設定または不明な値の場合はinfoになる。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
