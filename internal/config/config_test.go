package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_DefaultSecretDisablesValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CAKTO_WEBHOOK_SECRET", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.UsesDefaultWebhookSecret() {
		t.Fatal("expected empty secret to activate the validation bypass")
	}
	if cfg.ServerPort != "5001" {
		t.Fatalf("expected default port 5001, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_SentinelSecretAlsoDisablesValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CAKTO_WEBHOOK_SECRET", DefaultWebhookSecret)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.UsesDefaultWebhookSecret() {
		t.Fatal("expected the shipped sentinel secret to activate the bypass")
	}
}

func TestLoadConfig_RealSecretEnablesValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CAKTO_WEBHOOK_SECRET", "a-real-production-secret")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.UsesDefaultWebhookSecret() {
		t.Fatal("a configured secret must not activate the bypass")
	}
	if cfg.IsDevelopment() {
		t.Fatal("APP_ENV=production must disable the dev-only endpoints")
	}
}
