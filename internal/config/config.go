package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dshills/prradar/internal/effectivediff"
	"github.com/dshills/prradar/internal/logging"
)

// Config represents the prradar configuration.
type Config struct {
	Format         string                `json:"format" yaml:"format" validate:"oneof=text json markdown"`
	ContextLines   int                   `json:"contextLines" yaml:"contextLines" validate:"min=0"`
	Include        []string              `json:"include" yaml:"include"`
	Exclude        []string              `json:"exclude" yaml:"exclude"`
	MaxDiffBytes   int                   `json:"maxDiffBytes" yaml:"maxDiffBytes" validate:"min=0"`
	OutputDir      string                `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	Differ         string                `json:"differ" yaml:"differ" validate:"oneof=builtin git"`
	TimeoutSeconds int                   `json:"timeoutSeconds" yaml:"timeoutSeconds" validate:"min=1"`
	EffectiveDiff  effectivediff.Options `json:"effectiveDiff" yaml:"effectiveDiff"`
	Cache          CacheConfig           `json:"cache" yaml:"cache"`
	Log            logging.Config        `json:"log" yaml:"log"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds" validate:"min=0"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:         "text",
		ContextLines:   3,
		Include:        []string{"**/*"},
		Exclude:        []string{"vendor/**", "**/dist/**"},
		MaxDiffBytes:   2000000,
		Differ:         "builtin",
		TimeoutSeconds: 120,
		EffectiveDiff:  effectivediff.DefaultOptions(),
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Log: logging.DefaultConfig(),
	}
}

// ConfigDir returns the platform-appropriate config directory for prradar.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prradar"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "prradar"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "prradar"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "prradar"), nil
	default:
		return filepath.Join(home, ".config", "prradar"), nil
	}
}

// ConfigPath returns the full path to the config file: config.yaml when one
// exists, config.json otherwise.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile returns the defaults overlaid with the config file. A missing file
// yields the defaults.
func LoadFile() (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes the config file onto cfg, so keys absent from the file
// keep their current values.
func mergeFile(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return decode(path, data, cfg)
}

func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes the config to the config file, as YAML when the file is YAML.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var data []byte
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides,
// then validates it. The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidationError reports a config value that failed validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid configuration: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

var validate = validator.New()

// Validate checks every field against its constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// envKeys maps environment variables to config keys.
var envKeys = []struct {
	env string
	key string
}{
	{"PRRADAR_FORMAT", "format"},
	{"PRRADAR_CONTEXT_LINES", "contextLines"},
	{"PRRADAR_OUTPUT_DIR", "outputDir"},
	{"PRRADAR_DIFFER", "differ"},
	{"PRRADAR_TIMEOUT_SECONDS", "timeoutSeconds"},
	{"PRRADAR_GAP_TOLERANCE", "effectiveDiff.gapTolerance"},
	{"PRRADAR_MIN_BLOCK_SIZE", "effectiveDiff.minBlockSize"},
	{"PRRADAR_MIN_SCORE", "effectiveDiff.minScore"},
	{"PRRADAR_WORKERS", "effectiveDiff.workers"},
	{"PRRADAR_MATCH_MODE", "effectiveDiff.matchMode"},
	{"PRRADAR_STRICT", "effectiveDiff.strict"},
	{"PRRADAR_CACHE", "cache.enabled"},
	{"PRRADAR_LOG_LEVEL", "log.level"},
	{"PRRADAR_LOG_FORMAT", "log.format"},
	{"PRRADAR_LOG_FILE", "log.file"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists every key accepted by SetField.
func Keys() []string {
	return []string{
		"format", "contextLines", "include", "exclude", "maxDiffBytes", "outputDir",
		"differ", "timeoutSeconds",
		"effectiveDiff.gapTolerance", "effectiveDiff.minBlockSize", "effectiveDiff.minScore",
		"effectiveDiff.contextLines", "effectiveDiff.trimProximity", "effectiveDiff.workers",
		"effectiveDiff.matchMode", "effectiveDiff.strict",
		"cache.enabled", "cache.dir", "cache.ttlSeconds",
		"log.level", "log.format", "log.file", "log.maxSizeMB", "log.maxBackups",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "maxDiffBytes":
		return setInt(&cfg.MaxDiffBytes, key, value)
	case "outputDir":
		cfg.OutputDir = value
	case "differ":
		cfg.Differ = value
	case "timeoutSeconds":
		return setInt(&cfg.TimeoutSeconds, key, value)
	case "effectiveDiff.gapTolerance":
		return setInt(&cfg.EffectiveDiff.GapTolerance, key, value)
	case "effectiveDiff.minBlockSize":
		return setInt(&cfg.EffectiveDiff.MinBlockSize, key, value)
	case "effectiveDiff.minScore":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		cfg.EffectiveDiff.MinScore = f
	case "effectiveDiff.contextLines":
		return setInt(&cfg.EffectiveDiff.ContextLines, key, value)
	case "effectiveDiff.trimProximity":
		return setInt(&cfg.EffectiveDiff.TrimProximity, key, value)
	case "effectiveDiff.workers":
		return setInt(&cfg.EffectiveDiff.Workers, key, value)
	case "effectiveDiff.matchMode":
		cfg.EffectiveDiff.MatchMode = effectivediff.MatchMode(value)
	case "effectiveDiff.strict":
		return setBool(&cfg.EffectiveDiff.Strict, key, value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "log.file":
		cfg.Log.File = value
	case "log.maxSizeMB":
		return setInt(&cfg.Log.MaxSizeMB, key, value)
	case "log.maxBackups":
		return setInt(&cfg.Log.MaxBackups, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
