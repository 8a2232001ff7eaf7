package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the veritex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Detection DetectionConfig `yaml:"detection"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds the full-text shortlist index settings.
type IndexConfig struct {
	Backend   string `yaml:"backend"` // redisearch, memory (default: redisearch)
	Name      string `yaml:"name"`
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// DetectionConfig tunes the detection pipeline. Zero values fall back to
// the pipeline defaults.
type DetectionConfig struct {
	ShortlistK          int     `yaml:"shortlist_k"`
	Workers             int     `yaml:"workers"`
	CandidateTimeoutSec int     `yaml:"candidate_timeout_sec"`
	SpanThreshold       float64 `yaml:"span_threshold"`
	SpanFloor           float64 `yaml:"span_floor"`
	LexicalWeight       float64 `yaml:"lexical_weight"`
	SemanticWeight      float64 `yaml:"semantic_weight"`
	RiskHigh            float64 `yaml:"risk_high"`
	RiskMedium          float64 `yaml:"risk_medium"`
	MaxSources          int     `yaml:"max_sources"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Detection runs fan out over the whole shortlist; give writes
		// more room than a plain CRUD service would.
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Backend == "" {
		c.Index.Backend = "redisearch"
	}
	if c.Index.Name == "" {
		c.Index.Name = "corpus"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "doc:"
	}
	// Risk bands come as a pair; setting only one would silently shift the
	// other band to zero.
	if c.Detection.RiskHigh > 0 && c.Detection.RiskMedium == 0 {
		c.Detection.RiskMedium = 0.40
	}
	if c.Detection.RiskMedium > 0 && c.Detection.RiskHigh == 0 {
		c.Detection.RiskHigh = 0.70
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Index.Backend {
	case "", "redisearch", "memory":
	default:
		return fmt.Errorf("index.backend must be \"redisearch\" or \"memory\", got %q", c.Index.Backend)
	}
	if c.Detection.SpanThreshold < 0 || c.Detection.SpanThreshold > 1 {
		return fmt.Errorf("detection.span_threshold must be in [0,1], got %g", c.Detection.SpanThreshold)
	}
	if c.Detection.LexicalWeight < 0 || c.Detection.SemanticWeight < 0 {
		return fmt.Errorf("detection weights must not be negative")
	}
	if c.Detection.RiskHigh != 0 || c.Detection.RiskMedium != 0 {
		if c.Detection.RiskMedium < 0 || c.Detection.RiskHigh > 1 || c.Detection.RiskMedium >= c.Detection.RiskHigh {
			return fmt.Errorf("detection risk bands must satisfy 0 <= risk_medium < risk_high <= 1, got medium=%g high=%g",
				c.Detection.RiskMedium, c.Detection.RiskHigh)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
