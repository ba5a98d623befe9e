// Package config handles configuration loading and management for skillflow.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// ProjectConfigName is the project-level config file searched upward from the working directory.
const ProjectConfigName = ".skillflow.yaml"

// EnvPrefix prefixes every environment override, e.g. SKILLFLOW_SECURITY_LEVEL.
const EnvPrefix = "SKILLFLOW"

// ErrInvalidSecurityLevel is returned by Validate for an unknown security_level.
var ErrInvalidSecurityLevel = errors.New("invalid security level")

// Config holds all configuration for skillflow.
type Config struct {
	SkillsDirectory    string               `mapstructure:"skills_directory"`
	OutputDirectory    string               `mapstructure:"output_directory"`
	RegistryPath       string               `mapstructure:"registry_path"`
	SecurityLevel      models.SecurityLevel `mapstructure:"security_level"`
	AutoUpdateRegistry bool                 `mapstructure:"auto_update_registry"`
	CacheScans         bool                 `mapstructure:"cache_scans"`
	// ScanTimeout bounds one security scan; zero disables the bound.
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	// Author is recorded on skills registered by the pipeline.
	Author string `mapstructure:"author"`

	Security SecurityConfig `mapstructure:"security"`
	LLM      LLMConfig      `mapstructure:"llm"`
	State    StateConfig    `mapstructure:"state"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SecurityConfig selects the security gate implementation.
type SecurityConfig struct {
	// Gate is "local" (pattern detector) or "llm".
	Gate string `mapstructure:"gate"`
	// RulesFile optionally overrides the local detector rules.
	RulesFile string `mapstructure:"rules_file"`
}

// LLMConfig holds Claude settings for the llm gate.
type LLMConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// StateConfig locates the run history database.
type StateConfig struct {
	Path string `mapstructure:"path"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `mapstructure:"driver"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MetricsConfig configures the prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SkillsDirectory:    "./skills",
		OutputDirectory:    "./flows",
		RegistryPath:       "./skill_registry.json",
		SecurityLevel:      models.SecurityLevelStandard,
		AutoUpdateRegistry: true,
		CacheScans:         false,
		ScanTimeout:        30 * time.Second,
		Author:             "skillflow",
		Security: SecurityConfig{
			Gate: "local",
		},
		LLM: LLMConfig{
			Model: "claude-sonnet-4-20250514",
		},
		State: StateConfig{
			Path:   "./.skillflow/state.db",
			Driver: "sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Settings flattens the config into dotted viper keys.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"skills_directory":     c.SkillsDirectory,
		"output_directory":     c.OutputDirectory,
		"registry_path":        c.RegistryPath,
		"security_level":       string(c.SecurityLevel),
		"auto_update_registry": c.AutoUpdateRegistry,
		"cache_scans":          c.CacheScans,
		"scan_timeout":         c.ScanTimeout.String(),
		"author":               c.Author,
		"security.gate":        c.Security.Gate,
		"security.rules_file":  c.Security.RulesFile,
		"llm.model":            c.LLM.Model,
		"llm.api_key":          c.LLM.APIKey,
		"llm.use_bedrock":      c.LLM.UseBedrock,
		"llm.aws_region":       c.LLM.AWSRegion,
		"llm.aws_profile":      c.LLM.AWSProfile,
		"state.path":           c.State.Path,
		"state.driver":         c.State.Driver,
		"log.level":            c.Log.Level,
		"log.format":           c.Log.Format,
		"log.file":             c.Log.File,
		"metrics.textfile":     c.Metrics.Textfile,
	}
}

// Keys returns every recognized key in sorted order.
func Keys() []string {
	settings := Default().Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load loads configuration.
// Precedence (highest to lowest):
// 1. Environment variables (SKILLFLOW_*, ANTHROPIC_API_KEY)
// 2. path, or the project config (.skillflow.yaml in the current directory or a parent)
// 3. User config (~/.config/skillflow/config.yaml)
// 4. Built-in defaults
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(userConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading user config: %w", err)
			}
		}

		if projectConfig := findProjectConfig(); projectConfig != "" {
			pv := viper.New()
			pv.SetConfigFile(projectConfig)
			if err := pv.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading project config: %w", err)
			}
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)
	cfg.SecurityLevel = models.SecurityLevel(strings.ToLower(string(cfg.SecurityLevel)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range Default().Settings() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "ANTHROPIC_API_KEY")
	return v
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !c.SecurityLevel.Valid() {
		return fmt.Errorf("%w: %q (want minimal, standard or strict)", ErrInvalidSecurityLevel, c.SecurityLevel)
	}
	switch c.Security.Gate {
	case "local", "llm":
	default:
		return fmt.Errorf("invalid security.gate %q (want local or llm)", c.Security.Gate)
	}
	switch c.State.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("invalid state.driver %q (want sqlite or sqlite3)", c.State.Driver)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q (want console or json)", c.Log.Format)
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("invalid scan_timeout %s", c.ScanTimeout)
	}
	if c.RegistryPath == "" {
		return errors.New("registry_path cannot be empty")
	}
	return nil
}

// Save writes cfg as YAML to path, or to the user config file when path is empty.
// The API key is never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = UserConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	for k, val := range cfg.Settings() {
		if k == "llm.api_key" {
			continue
		}
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// ProjectConfigPath returns the path to the project config file if it exists.
func ProjectConfigPath() string {
	return findProjectConfig()
}

// userConfigDir returns the XDG config directory for skillflow.
func userConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "skillflow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "skillflow")
	}
	return filepath.Join(home, ".config", "skillflow")
}

// findProjectConfig searches for .skillflow.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}
