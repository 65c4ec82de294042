package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config is the effective revlens configuration after merging defaults,
// the config file, environment, and CLI flag overrides.
type Config struct {
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Format       string        `json:"format"`
	FailOn       string        `json:"failOn"`
	MaxFindings  int           `json:"maxFindings"`
	ContextLines int           `json:"contextLines"`
	ContextGap   int           `json:"contextGap,omitempty"`
	ContextPad   int           `json:"contextPad,omitempty"`
	Include      []string      `json:"include"`
	Exclude      []string      `json:"exclude"`
	MaxDiffBytes int           `json:"maxDiffBytes"`
	RulesFile    string        `json:"rulesFile,omitempty"`
	ListenAddr   string        `json:"listenAddr,omitempty"`
	StorePath    string        `json:"storePath,omitempty"`
	PatternLimit int           `json:"patternLimit,omitempty"`
	Cache        CacheConfig   `json:"cache"`
	Privacy      PrivacyConfig `json:"privacy"`
}

// CacheConfig controls reply caching.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:     "anthropic",
		Model:        "claude-sonnet-4-20250514",
		Format:       "text",
		FailOn:       "none",
		MaxFindings:  50,
		ContextLines: 3,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		MaxDiffBytes: 500000,
		ListenAddr:   ":8632",
		PatternLimit: 10,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revlens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "revlens"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "revlens"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "revlens"), nil
	default:
		return filepath.Join(home, ".config", "revlens"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultStorePath returns where the feedback store lives when the config
// does not name one.
func DefaultStorePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "feedback.db"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only non-zero values
// should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.FailOn != "" {
		dst.FailOn = src.FailOn
	}
	if src.MaxFindings > 0 {
		dst.MaxFindings = src.MaxFindings
	}
	if src.ContextLines > 0 {
		dst.ContextLines = src.ContextLines
	}
	if src.ContextGap > 0 {
		dst.ContextGap = src.ContextGap
	}
	if src.ContextPad > 0 {
		dst.ContextPad = src.ContextPad
	}
	if len(src.Include) > 0 {
		dst.Include = src.Include
	}
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.MaxDiffBytes > 0 {
		dst.MaxDiffBytes = src.MaxDiffBytes
	}
	if src.RulesFile != "" {
		dst.RulesFile = src.RulesFile
	}
	if src.ListenAddr != "" {
		dst.ListenAddr = src.ListenAddr
	}
	if src.StorePath != "" {
		dst.StorePath = src.StorePath
	}
	if src.PatternLimit > 0 {
		dst.PatternLimit = src.PatternLimit
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	// JSON cannot distinguish an unset bool from an explicit false, so a
	// file can enable but never disable these.
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	if len(src.Privacy.RedactPaths) > 0 {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVLENS_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("REVLENS_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("REVLENS_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("REVLENS_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("REVLENS_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("REVLENS_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("REVLENS_MAX_FINDINGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFindings = n
		}
	}
	if v := os.Getenv("REVLENS_CONTEXT_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ContextLines = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	setString := func(key string, dst *string) {
		if v, ok := overrides[key]; ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := overrides[key]; ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString("provider", &cfg.Provider)
	setString("model", &cfg.Model)
	setString("format", &cfg.Format)
	setString("failOn", &cfg.FailOn)
	setString("rulesFile", &cfg.RulesFile)
	setString("listenAddr", &cfg.ListenAddr)
	setString("storePath", &cfg.StorePath)
	setInt("maxFindings", &cfg.MaxFindings)
	setInt("contextLines", &cfg.ContextLines)
	setInt("contextGap", &cfg.ContextGap)
	setInt("contextPad", &cfg.ContextPad)
	setInt("maxDiffBytes", &cfg.MaxDiffBytes)
	setInt("patternLimit", &cfg.PatternLimit)
}

// SetField sets a single config field by key name. Returns an error for
// unknown keys.
func SetField(cfg *Config, key, value string) error {
	intField := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "rulesFile":
		cfg.RulesFile = value
	case "listenAddr":
		cfg.ListenAddr = value
	case "storePath":
		cfg.StorePath = value
	case "maxFindings":
		return intField(&cfg.MaxFindings)
	case "contextLines":
		return intField(&cfg.ContextLines)
	case "contextGap":
		return intField(&cfg.ContextGap)
	case "contextPad":
		return intField(&cfg.ContextPad)
	case "maxDiffBytes":
		return intField(&cfg.MaxDiffBytes)
	case "patternLimit":
		return intField(&cfg.PatternLimit)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
