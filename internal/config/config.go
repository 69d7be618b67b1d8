package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. SHEETASK_OLLAMA_HOST.
const EnvPrefix = "SHEETASK"

// Global configuration structure.
type Global struct {
	DefaultModel   string  `mapstructure:"default_model" yaml:"default_model"`
	EmbeddingModel string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`

	// Local runtime (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`
	RetryMaxAttempts int    `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int    `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int    `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// HTTP service
	ServerAddr  string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	MaxTables   int    `mapstructure:"max_tables" yaml:"max_tables"`

	// Loading and preview
	SheetName   string `mapstructure:"sheet_name" yaml:"sheet_name"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows"`

	// Retrieval
	RetrievalTopK     int     `mapstructure:"retrieval_top_k" yaml:"retrieval_top_k"`
	RetrievalMinScore float64 `mapstructure:"retrieval_min_score" yaml:"retrieval_min_score"`
	ChunkMaxTokens    int     `mapstructure:"chunk_max_tokens" yaml:"chunk_max_tokens"`
	ChunkOverlap      int     `mapstructure:"chunk_overlap" yaml:"chunk_overlap"`
	EmbedConcurrency  int     `mapstructure:"embed_concurrency" yaml:"embed_concurrency"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

var defaults = map[string]any{
	"default_model":       "llama3.1:8b",
	"embedding_model":     "nomic-embed-text",
	"max_tokens":          1024,
	"temperature":         0.2,
	"ollama_host":         "http://127.0.0.1:11434",
	"ollama_timeout_sec":  60,
	"retry_max_attempts":  2,
	"retry_base_delay_ms": 200,
	"retry_max_delay_ms":  1000,
	"server_addr":         ":8080",
	"max_upload_mb":       20,
	"max_tables":          32,
	"sheet_name":          "",
	"preview_rows":        5,
	"retrieval_top_k":     6,
	"retrieval_min_score": 0.0,
	"chunk_max_tokens":    400,
	"chunk_overlap":       40,
	"embed_concurrency":   4,
	"log_level":           "warn",
}

// Keys lists every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the configuration used when no file or env is present.
func Defaults() *Global {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Dir returns ~/.sheetask.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sheetask"), nil
}

func defaultPath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to cfgFile, or to ~/.sheetask/config.yaml
// when cfgFile is empty, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := defaultPath(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil && !configMissing(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// configMissing treats both viper's lookup miss and an absent explicit file as "no config".
func configMissing(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Validate rejects values the commands cannot work with.
func (c *Global) Validate() error {
	switch {
	case c.MaxTables <= 0:
		return fmt.Errorf("max_tables must be positive, got %d", c.MaxTables)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	case c.PreviewRows < 0:
		return fmt.Errorf("preview_rows must not be negative, got %d", c.PreviewRows)
	case c.RetrievalMinScore < -1 || c.RetrievalMinScore > 1:
		return fmt.Errorf("retrieval_min_score must be within [-1, 1], got %g", c.RetrievalMinScore)
	case c.ChunkOverlap < 0 || (c.ChunkMaxTokens > 0 && c.ChunkOverlap >= c.ChunkMaxTokens):
		return fmt.Errorf("chunk_overlap must be in [0, chunk_max_tokens), got %d", c.ChunkOverlap)
	}
	return nil
}

// Set parses val for key and assigns it. Unknown keys and malformed values
// are errors; the receiver is left unchanged on error.
func (c *Global) Set(key, val string) error {
	next := *c
	var err error
	switch key {
	case "default_model":
		next.DefaultModel = val
	case "embedding_model":
		next.EmbeddingModel = val
	case "ollama_host":
		next.OllamaHost = strings.TrimRight(val, "/")
	case "server_addr":
		next.ServerAddr = val
	case "sheet_name":
		next.SheetName = val
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "max_tokens":
		next.MaxTokens, err = atoi(key, val)
	case "ollama_timeout_sec":
		next.OllamaTimeoutSec, err = atoi(key, val)
	case "retry_max_attempts":
		next.RetryMaxAttempts, err = atoi(key, val)
	case "retry_base_delay_ms":
		next.RetryBaseDelayMs, err = atoi(key, val)
	case "retry_max_delay_ms":
		next.RetryMaxDelayMs, err = atoi(key, val)
	case "max_upload_mb":
		next.MaxUploadMB, err = atoi(key, val)
	case "max_tables":
		next.MaxTables, err = atoi(key, val)
	case "preview_rows":
		next.PreviewRows, err = atoi(key, val)
	case "retrieval_top_k":
		next.RetrievalTopK, err = atoi(key, val)
	case "chunk_max_tokens":
		next.ChunkMaxTokens, err = atoi(key, val)
	case "chunk_overlap":
		next.ChunkOverlap, err = atoi(key, val)
	case "embed_concurrency":
		next.EmbedConcurrency, err = atoi(key, val)
	case "temperature":
		next.Temperature, err = atof(key, val)
	case "retrieval_min_score":
		next.RetrievalMinScore, err = atof(key, val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func atoi(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid int for %s: %q", key, val)
	}
	return i, nil
}

func atof(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float for %s: %q", key, val)
	}
	return f, nil
}
