// Package cli holds the command-line configuration shared by every
// blockscript subcommand.
package cli

import (
	"fmt"
	"strings"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/spf13/cobra"

	"github.com/zurustar/blockscript/pkg/compiler"
	"github.com/zurustar/blockscript/pkg/logger"
)

// DefaultTick is one game tick.
const DefaultTick = 50 * time.Millisecond

// Config は環境変数とコマンドラインフラグから解析された設定を保持する
type Config struct {
	Store        string        `config:"BLOCKSCRIPT_STORE"`         // プログラムストアのURI
	LogLevel     string        `config:"BLOCKSCRIPT_LOG_LEVEL"`     // ログレベル（debug, info, warn, error）
	LogFile      string        `config:"BLOCKSCRIPT_LOG_FILE"`      // JSONログの出力先（空なら出力しない）
	WorldSuffix  string        `config:"BLOCKSCRIPT_WORLD_SUFFIX"`  // レイアウト名から取り除く接尾辞
	Tick         time.Duration `config:"BLOCKSCRIPT_TICK"`          // 実時間で動かすときの1tickの長さ
	OTLPEndpoint string        `config:"BLOCKSCRIPT_OTLP_ENDPOINT"` // OTLP/HTTPのtraces URL（空なら無効）
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Store:       "memory:",
		LogLevel:    "info",
		WorldSuffix: compiler.DefaultWorldSuffix,
		Tick:        DefaultTick,
	}
}

// Load returns the defaults overridden by BLOCKSCRIPT_* environment
// variables.
func Load() (*Config, error) {
	config := Default()
	if err := jlconfig.FromEnv().To(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return config, nil
}

// BindFlags registers persistent flags on cmd. Flags default to the
// current values, so a flag only wins when it is given.
func (c *Config) BindFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&c.Store, "store", c.Store, "program store URI (memory:, file:<path>, redis://host:port/db, sqlite:<path>)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "also write JSON logs to this file")
	fs.StringVar(&c.WorldSuffix, "world-suffix", c.WorldSuffix, "suffix stripped from layout names to form world ids")
	fs.DurationVar(&c.Tick, "tick", c.Tick, "tick length when running in real time")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", c.OTLPEndpoint, "OTLP/HTTP traces URL; empty disables tracing")
}

// Validate checks the settings and normalises the log level.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w (must be debug, info, warn, or error)", err)
	}

	// ストアURIの検証（接続はしない）
	scheme, rest, _ := strings.Cut(c.Store, ":")
	switch scheme {
	case "", "memory", "redis", "rediss":
	case "file", "sqlite":
		if rest == "" {
			return fmt.Errorf("invalid store %q: %s store requires a path", c.Store, scheme)
		}
	default:
		return fmt.Errorf("invalid store %q: unknown scheme %q", c.Store, scheme)
	}

	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", c.Tick)
	}
	return nil
}
