// Package projectconfig provides the ProjectConfig struct and loader for
// .mentor.yaml project-level configuration files, plus .env loading for
// secrets.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth — New() references them and no other code should duplicate them.
const (
	DefaultDataDir     = "data/"
	DefaultMemoryPath  = "memory/analyses.json"
	DefaultResultsPath = "evaluation/results.json"
	DefaultSessionsDir = ".mentor-sessions"
	DefaultCacheDir    = ".mentor-cache"

	DefaultOracleModel     = "claude-sonnet-4-20250514"
	DefaultOracleMaxTokens = 4096

	DefaultQdrantCollection = "mentor_snippets"

	DefaultServerPort = 8080
)

// PathsConfig holds locations for traces, memory, and results.
type PathsConfig struct {
	Data     string `yaml:"data,omitempty"`
	Memory   string `yaml:"memory,omitempty"`
	Results  string `yaml:"results,omitempty"`
	Sessions string `yaml:"sessions,omitempty"`
	Cache    string `yaml:"cache,omitempty"`
}

// OracleConfig holds LLM oracle settings. The API key is never read from
// YAML; it comes from the environment (optionally via .env).
type OracleConfig struct {
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// QdrantConfig holds semantic memory settings.
type QdrantConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	URL        string `yaml:"url,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// DefaultsConfig holds default run parameters.
type DefaultsConfig struct {
	SessionLog *bool `yaml:"session_log,omitempty"`
	Verbose    *bool `yaml:"verbose,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .mentor.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Oracle   OracleConfig   `yaml:"oracle,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Data:     DefaultDataDir,
			Memory:   DefaultMemoryPath,
			Results:  DefaultResultsPath,
			Sessions: DefaultSessionsDir,
			Cache:    DefaultCacheDir,
		},
		Oracle: OracleConfig{
			Model:     DefaultOracleModel,
			MaxTokens: DefaultOracleMaxTokens,
		},
		Qdrant: QdrantConfig{
			Enabled:    boolPtr(false),
			Collection: DefaultQdrantCollection,
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
		Defaults: DefaultsConfig{
			SessionLog: boolPtr(false),
			Verbose:    boolPtr(false),
		},
	}
}

// Load finds .mentor.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading .mentor.yaml: %w", err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .mentor.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// LoadEnv loads a .env file from startDir into the process environment when
// one exists. Variables already set in the environment win. A missing file is
// not an error.
func LoadEnv(startDir string) error {
	path := filepath.Join(startDir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// findConfigFile walks up from dir looking for .mentor.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".mentor.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Paths.Data != "" {
		dst.Paths.Data = src.Paths.Data
	}
	if src.Paths.Memory != "" {
		dst.Paths.Memory = src.Paths.Memory
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Sessions != "" {
		dst.Paths.Sessions = src.Paths.Sessions
	}
	if src.Paths.Cache != "" {
		dst.Paths.Cache = src.Paths.Cache
	}

	if src.Oracle.Model != "" {
		dst.Oracle.Model = src.Oracle.Model
	}
	if src.Oracle.MaxTokens != 0 {
		dst.Oracle.MaxTokens = src.Oracle.MaxTokens
	}

	if src.Qdrant.Enabled != nil {
		dst.Qdrant.Enabled = src.Qdrant.Enabled
	}
	if src.Qdrant.URL != "" {
		dst.Qdrant.URL = src.Qdrant.URL
	}
	if src.Qdrant.Collection != "" {
		dst.Qdrant.Collection = src.Qdrant.Collection
	}

	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}

	if src.Defaults.SessionLog != nil {
		dst.Defaults.SessionLog = src.Defaults.SessionLog
	}
	if src.Defaults.Verbose != nil {
		dst.Defaults.Verbose = src.Defaults.Verbose
	}
}

func boolPtr(b bool) *bool {
	return &b
}
