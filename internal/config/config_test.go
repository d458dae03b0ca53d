//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
database: { url: "postgres://localhost/chat" }
ai: { openai_key: "sk-test" }
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != 8090 {
		t.Errorf("port default: got %d", cfg.App.Port)
	}
	if cfg.AI.Model != "gpt-4.1-mini" || cfg.AI.MaxRetries != 2 {
		t.Errorf("ai defaults: %+v", cfg.AI)
	}
	if cfg.Chat.RetentionDays != 30 || cfg.Chat.MaxMessageLength != 4000 ||
		cfg.Chat.MaxHistoryMessages != 20 || cfg.Chat.RateLimitPerMinute != 20 {
		t.Errorf("chat defaults: %+v", cfg.Chat)
	}
}

func TestLoadConfig_ZeroRetriesSentinel(t *testing.T) {
	body := `
database: { url: "postgres://localhost/chat" }
ai: { openai_key: "sk-test", max_retries: -1 }
`
	cfg, err := LoadConfig(writeConfig(t, body), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// -1 is the explicit "no retries" value; 0/absent gets the default.
	if cfg.AI.MaxRetries != 0 {
		t.Fatalf("max_retries -1 must mean zero retries, got %d", cfg.AI.MaxRetries)
	}
}

func TestLoadConfig_RequiredKeys(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, `ai: { openai_key: "sk-test" }`), false); err == nil {
		t.Fatal("missing database.url must fail")
	}
	if _, err := LoadConfig(writeConfig(t, `database: { url: "postgres://x" }`), false); err == nil {
		t.Fatal("missing ai.openai_key must fail")
	}
}
