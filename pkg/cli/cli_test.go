package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{Store: "memory:", LogLevel: "info", WorldSuffix: "_dev", Tick: DefaultTick}
	if *config != want {
		t.Errorf("config = %+v, want %+v", *config, want)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BLOCKSCRIPT_STORE", "sqlite:/tmp/programs.db")
	t.Setenv("BLOCKSCRIPT_LOG_LEVEL", "debug")
	t.Setenv("BLOCKSCRIPT_WORLD_SUFFIX", "_edit")
	t.Setenv("BLOCKSCRIPT_OTLP_ENDPOINT", "http://localhost:4318/v1/traces")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Store != "sqlite:/tmp/programs.db" || config.LogLevel != "debug" || config.WorldSuffix != "_edit" {
		t.Errorf("config = %+v", config)
	}
	if config.OTLPEndpoint != "http://localhost:4318/v1/traces" {
		t.Errorf("endpoint = %q", config.OTLPEndpoint)
	}
	if config.Tick != DefaultTick {
		t.Errorf("unset tick changed: %s", config.Tick)
	}
}

func TestBindFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "フラグなし",
			args: nil,
			check: func(t *testing.T, c *Config) {
				if c.Store != "file:env.yaml" || c.LogLevel != "info" {
					t.Errorf("environment value lost: %+v", c)
				}
			},
		},
		{
			name: "フラグが環境変数より優先",
			args: []string{"--store", "redis://localhost:6379/0", "-l", "warn", "--tick", "10ms"},
			check: func(t *testing.T, c *Config) {
				if c.Store != "redis://localhost:6379/0" || c.LogLevel != "warn" || c.Tick != 10*time.Millisecond {
					t.Errorf("config = %+v", c)
				}
			},
		},
		{
			name: "その他",
			args: []string{"--log-file", "out.json", "--world-suffix", "", "--otlp-endpoint", "http://c:4318/v1/traces"},
			check: func(t *testing.T, c *Config) {
				if c.LogFile != "out.json" || c.WorldSuffix != "" || c.OTLPEndpoint != "http://c:4318/v1/traces" {
					t.Errorf("config = %+v", c)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			config.Store = "file:env.yaml"
			cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
			config.BindFlags(cmd)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			tt.check(t, config)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"デフォルト", func(c *Config) {}, false},
		{"大文字のログレベル", func(c *Config) { c.LogLevel = " DEBUG " }, false},
		{"空のストア", func(c *Config) { c.Store = "" }, false},
		{"fileストア", func(c *Config) { c.Store = "file:programs.yaml" }, false},
		{"redisストア", func(c *Config) { c.Store = "redis://localhost:6379/0" }, false},
		{"無効なログレベル", func(c *Config) { c.LogLevel = "trace" }, true},
		{"パスなしのfile", func(c *Config) { c.Store = "file:" }, true},
		{"パスなしのsqlite", func(c *Config) { c.Store = "sqlite:" }, true},
		{"未知のスキーム", func(c *Config) { c.Store = "mongodb://x" }, true},
		{"tickがゼロ", func(c *Config) { c.Tick = 0 }, true},
		{"tickが負", func(c *Config) { c.Tick = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	config := Default()
	config.LogLevel = "WARN"
	if err := config.Validate(); err != nil || config.LogLevel != "warn" {
		t.Errorf("level not normalised: %q, %v", config.LogLevel, err)
	}
}
