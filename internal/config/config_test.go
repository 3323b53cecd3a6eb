package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("SEED_OWNER_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.SeedOwnerPassword != "" {
		t.Fatalf("expected empty SEED_OWNER_PASSWORD when unset, got %q", cfg.SeedOwnerPassword)
	}
}

func TestLoadFallsBackOnInvalidDurations(t *testing.T) {
	t.Setenv("SNAPSHOT_TTL_SECONDS", "-5")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "soon")

	cfg := Load()
	if cfg.SnapshotTTLSeconds != 30 {
		t.Fatalf("expected snapshot ttl fallback 30, got %d", cfg.SnapshotTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected token ttl fallback 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}

func TestLoadNormalisesLogSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "Console")
	t.Setenv("PORT", "9090")

	cfg := Load()
	if cfg.LogLevel != "debug" || cfg.LogFormat != "console" {
		t.Fatalf("expected lowercased log settings, got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Address())
	}
}
