package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

var globalLogger *slog.Logger

// ParseLevel ログレベル文字列をslog.Levelに変換
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// InitLogger ログレベルに応じてslogを初期化 (stdoutのみ)
func InitLogger(level string) error {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}
	install(New(slogLevel, os.Stdout, nil))
	return nil
}

// InitLoggerWithFile stdoutのテキスト出力に加えて、pathへJSONで出力する。
// An empty path behaves like InitLogger. The returned closer releases the file.
func InitLoggerWithFile(level, path string) (io.Closer, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if path == "" {
		install(New(slogLevel, os.Stdout, nil))
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	install(New(slogLevel, os.Stdout, f))
	return f, nil
}

// New builds a logger writing text to text and, when json is non-nil,
// JSON records to json. Both sinks share the level.
func New(level slog.Level, text io.Writer, json io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(text, opts)}
	if json != nil {
		handlers = append(handlers, slog.NewJSONHandler(json, opts))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

func install(l *slog.Logger) {
	globalLogger = l
	slog.SetDefault(globalLogger)
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}
