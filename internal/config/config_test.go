package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_SpanThresholdOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.SpanThreshold = 1.2

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for span_threshold > 1")
	}
}

func TestValidate_NegativeWeight(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.LexicalWeight = -0.4

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestValidate_InvertedRiskBands(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.RiskHigh = 0.3
	cfg.Detection.RiskMedium = 0.7

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for medium >= high")
	}
}

func TestValidate_ZeroRiskBandsAllowed(t *testing.T) {
	cfg := validConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unset risk bands must fall back to defaults, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Index.Name != "corpus" {
		t.Errorf("expected index name 'corpus', got %q", cfg.Index.Name)
	}
	if cfg.Index.KeyPrefix != "doc:" {
		t.Errorf("expected KeyPrefix='doc:', got %q", cfg.Index.KeyPrefix)
	}
}

func TestApplyDefaults_CompletesRiskBandPair(t *testing.T) {
	cfg := validConfig()
	cfg.Detection.RiskHigh = 0.85
	cfg.ApplyDefaults()

	if cfg.Detection.RiskMedium != 0.40 {
		t.Errorf("expected RiskMedium defaulted to 0.40, got %g", cfg.Detection.RiskMedium)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("completed band pair must validate, got %v", err)
	}

	cfg = validConfig()
	cfg.Detection.RiskMedium = 0.30
	cfg.ApplyDefaults()

	if cfg.Detection.RiskHigh != 0.70 {
		t.Errorf("expected RiskHigh defaulted to 0.70, got %g", cfg.Detection.RiskHigh)
	}

	// Fully unset bands stay zero; the composition root falls back to the
	// domain defaults in that case.
	cfg = validConfig()
	cfg.ApplyDefaults()
	if cfg.Detection.RiskHigh != 0 || cfg.Detection.RiskMedium != 0 {
		t.Errorf("unset bands must stay zero, got medium=%g high=%g",
			cfg.Detection.RiskMedium, cfg.Detection.RiskHigh)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 5, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Index:    IndexConfig{Name: "corpus_v2", KeyPrefix: "ref:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 5 {
		t.Errorf("expected ReadTimeoutSec=5, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Index.Name != "corpus_v2" {
		t.Errorf("expected index name 'corpus_v2', got %q", cfg.Index.Name)
	}
	if cfg.Index.KeyPrefix != "ref:" {
		t.Errorf("expected KeyPrefix='ref:', got %q", cfg.Index.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("VERITEX_TEST_KEY", "sk-secret")
	defer os.Unsetenv("VERITEX_TEST_KEY")

	in := []byte("api_key: ${VERITEX_TEST_KEY}\nbase_url: ${VERITEX_TEST_URL:-https://api.openai.com/v1}\n")
	out := string(expandEnvVars(in))

	want := "api_key: sk-secret\nbase_url: https://api.openai.com/v1\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
