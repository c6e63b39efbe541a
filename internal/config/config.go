package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL         = "http://127.0.0.1:7411"
	DefaultLogLevel       = "info"
	DefaultConfigFileName = ".blobshare.toml"
	DefaultDBFileName     = ".blobshare.db"

	DefaultStorageRoot     = "/mnt/blob-storage"
	DefaultMaxSizeMB       = 100
	DefaultTTLHours        = 24
	DefaultAcquireTimeout  = 30
	DefaultAcquireCacheTTL = 5

	configDirEnvKey          = "BLOBSHARE_CONFIG_DIR"
	trustProjectConfigEnvKey = "BLOBSHARE_TRUST_PROJECT_CONFIG"
	apiURLEnvKey             = "BLOBSHARE_API_URL"
	storageRootEnvKey        = "BLOB_STORAGE_ROOT"
	hostStorageRootEnvKey    = "HOST_BLOB_STORAGE_ROOT"
	maxSizeEnvKey            = "BLOB_MAX_SIZE_MB"
	ttlHoursEnvKey           = "BLOB_TTL_HOURS"
)

// StorageConfig defines where and how blobs are persisted.
type StorageConfig struct {
	Root            string `toml:"root"`
	HostRoot        string `toml:"host_root"`
	DBPath          string `toml:"db_path"`
	MaxSizeMB       int    `toml:"max_size_mb"`
	DefaultTTLHours int    `toml:"default_ttl_hours"`
	Deduplicate     bool   `toml:"deduplicate"`
}

// AcquireConfig defines the optional upstream document source.
type AcquireConfig struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// Config defines runtime configuration for blobshare.
type Config struct {
	APIURL                   string        `toml:"api_url"`
	LogLevel                 string        `toml:"log_level"`
	Storage                  StorageConfig `toml:"storage"`
	Acquire                  AcquireConfig `toml:"acquire"`
	TrustedProjectConfigPath string        `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: "",
		Storage: StorageConfig{
			Root:            DefaultStorageRoot,
			HostRoot:        "",
			DBPath:          "",
			MaxSizeMB:       DefaultMaxSizeMB,
			DefaultTTLHours: DefaultTTLHours,
			Deduplicate:     true,
		},
		Acquire: AcquireConfig{
			BaseURL:         "",
			TimeoutSeconds:  DefaultAcquireTimeout,
			CacheTTLMinutes: DefaultAcquireCacheTTL,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, DefaultConfigFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"log_level",
	"storage.root",
	"storage.host_root",
	"storage.db_path",
	"storage.max_size_mb",
	"storage.default_ttl_hours",
	"storage.deduplicate",
	"acquire.base_url",
	"acquire.timeout_seconds",
	"acquire.cache_ttl_minutes",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "log_level":
		return c.LogLevel, nil
	case "storage.root":
		return c.Storage.Root, nil
	case "storage.host_root":
		return c.Storage.HostRoot, nil
	case "storage.db_path":
		return c.Storage.DBPath, nil
	case "storage.max_size_mb":
		return strconv.Itoa(c.Storage.MaxSizeMB), nil
	case "storage.default_ttl_hours":
		return strconv.Itoa(c.Storage.DefaultTTLHours), nil
	case "storage.deduplicate":
		return strconv.FormatBool(c.Storage.Deduplicate), nil
	case "acquire.base_url":
		return c.Acquire.BaseURL, nil
	case "acquire.timeout_seconds":
		return strconv.Itoa(c.Acquire.TimeoutSeconds), nil
	case "acquire.cache_ttl_minutes":
		return strconv.Itoa(c.Acquire.CacheTTLMinutes), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, DefaultConfigFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, DefaultConfigFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if root := strings.TrimSpace(os.Getenv(storageRootEnvKey)); root != "" {
		cfg.Storage.Root = root
	}
	if hostRoot := strings.TrimSpace(os.Getenv(hostStorageRootEnvKey)); hostRoot != "" {
		cfg.Storage.HostRoot = hostRoot
	}
	if raw := strings.TrimSpace(os.Getenv(maxSizeEnvKey)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.Storage.MaxSizeMB = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv(ttlHoursEnvKey)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.Storage.DefaultTTLHours = parsed
		}
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "storage.max_size_mb", "storage.default_ttl_hours",
		"acquire.timeout_seconds", "acquire.cache_ttl_minutes":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "storage.deduplicate":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.Storage.Root) == "" {
		c.Storage.Root = DefaultStorageRoot
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = filepath.Join(c.Storage.Root, DefaultDBFileName)
	}
	if c.Storage.MaxSizeMB <= 0 {
		c.Storage.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Storage.DefaultTTLHours <= 0 {
		c.Storage.DefaultTTLHours = DefaultTTLHours
	}
	if c.Acquire.TimeoutSeconds <= 0 {
		c.Acquire.TimeoutSeconds = DefaultAcquireTimeout
	}
	if c.Acquire.CacheTTLMinutes <= 0 {
		c.Acquire.CacheTTLMinutes = DefaultAcquireCacheTTL
	}
}
