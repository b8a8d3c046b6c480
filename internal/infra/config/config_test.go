package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	v, err := NewViper("")
	if err != nil {
		t.Fatalf("new viper: %v", err)
	}
	v.Set("APP_ENV", "dev")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.JWTTTL != 24*time.Hour || cfg.OutboxPollInterval != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[2] != 30*time.Second {
		t.Fatalf("unexpected backoff %v", cfg.RetryBackoff)
	}
	if cfg.JWTSecret == "" {
		t.Fatalf("dev secret not applied")
	}
	if cfg.ReminderTime != 9*time.Hour {
		t.Fatalf("unexpected reminder time %v", cfg.ReminderTime)
	}
}

func TestLoadReadsEnvFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "KAFKA_BROKERS=k1:9092, k2:9092\nBACKEND_URL=https://api.example.com/\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("KAFKA_BROKERS", "")
	os.Unsetenv("KAFKA_BROKERS")
	t.Setenv("BACKEND_URL", "")
	os.Unsetenv("BACKEND_URL")

	v, err := NewViper(envFile)
	if err != nil {
		t.Fatalf("new viper: %v", err)
	}
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", "", "")
	if err := flags.Parse([]string{"--addr", ":9999"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := BindFlags(v, flags, map[string]string{"addr": "HTTP_ADDR", "missing": "X"}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	v.Set("APP_ENV", "dev")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("flag not applied: %q", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Fatalf("backend url: %q", cfg.BackendURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret in prod": {"APP_ENV": "prod"},
		"bad ttl":                {"JWT_TTL": "soon"},
		"bad backoff":            {"RETRY_BACKOFF": "1s,later"},
		"reminder past midnight": {"REMINDER_TIME": "25h"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := NewViper("")
			if err != nil {
				t.Fatalf("new viper: %v", err)
			}
			v.Set("APP_ENV", "dev")
			v.Set("JWT_SECRET", "")
			for k, val := range overrides {
				v.Set(k, val)
			}
			if _, err := Load(v); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
