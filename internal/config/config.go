package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/wizard"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Transport TransportConfig     `yaml:"transport"`
	DB        DBConfig            `yaml:"db"`
	Store     StoreConfig         `yaml:"store"`
	Log       LogConfig           `yaml:"log"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Console   ConsoleConfig       `yaml:"console"`
	Build     BuildConfig         `yaml:"build"`
	Import    ImportConfig        `yaml:"import"`
	Upload    UploadConfig        `yaml:"upload"`
	Package   PackageConfig       `yaml:"package"`
	Classes   []class.GlobalClass `yaml:"classes"`
	Datasets  []wizard.Dataset    `yaml:"datasets"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver       string `yaml:"driver"`
	SeedFixtures bool   `yaml:"seed_fixtures"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ConsoleConfig struct {
	SessionTTL        time.Duration `yaml:"session_ttl"`
	PreserveUnmounted bool          `yaml:"preserve_unmounted"`
}

type BuildConfig struct {
	BaseDelay         time.Duration `yaml:"base_delay"`
	Jitter            time.Duration `yaml:"jitter"`
	ArtifactSizeBytes int64         `yaml:"artifact_size_bytes"`
	Seed              uint64        `yaml:"seed"`
}

type ImportConfig struct {
	// Dir confines server-side archive paths. Empty disables them.
	Dir            string        `yaml:"dir"`
	Delay          time.Duration `yaml:"delay"`
	SimulatedCount int           `yaml:"simulated_count"`
	MaxBytes       int64         `yaml:"max_bytes"`
}

type UploadConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int    `yaml:"max_bytes"`
}

type PackageConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Transport: TransportConfig{Mode: "stdio"},
		DB:        DBConfig{Path: ":memory:"},
		Store:     StoreConfig{Driver: "memory", SeedFixtures: true},
		Log:       LogConfig{Level: "info"},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		Console:   ConsoleConfig{SessionTTL: 30 * time.Minute},
		Build: BuildConfig{
			BaseDelay:         800 * time.Millisecond,
			Jitter:            500 * time.Millisecond,
			ArtifactSizeBytes: 145 * 1024 * 1024,
		},
		Import:  ImportConfig{Dir: "data/imports", Delay: 1500 * time.Millisecond, SimulatedCount: 3, MaxBytes: 512 << 20},
		Upload:  UploadConfig{Dir: "data/uploads", MaxBytes: 20 << 20},
		Package: PackageConfig{Dir: "data/packages"},
	}
}

// Load reads .env, an optional YAML file named by AOIFORGE_CONFIG_PATH and
// AOIFORGE_* environment overrides, in that order.
func Load() (Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit YAML path. An empty path falls back to
// AOIFORGE_CONFIG_PATH.
func LoadFrom(path string) (Config, error) {
	envFile := os.Getenv("AOIFORGE_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("AOIFORGE_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("AOIFORGE_TRANSPORT", &cfg.Transport.Mode)
	setString("AOIFORGE_SERVER_HOST", &cfg.Server.Host)
	setString("AOIFORGE_DB_PATH", &cfg.DB.Path)
	setString("AOIFORGE_STORE_DRIVER", &cfg.Store.Driver)
	setString("AOIFORGE_LOG_LEVEL", &cfg.Log.Level)
	setString("AOIFORGE_LOG_PATH", &cfg.Log.Path)
	setString("AOIFORGE_UPLOAD_DIR", &cfg.Upload.Dir)
	setString("AOIFORGE_IMPORT_DIR", &cfg.Import.Dir)
	setString("AOIFORGE_PACKAGE_DIR", &cfg.Package.Dir)

	if v := os.Getenv("AOIFORGE_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AOIFORGE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	bools := map[string]*bool{
		"AOIFORGE_METRICS_ENABLED":    &cfg.Metrics.Enabled,
		"AOIFORGE_PRESERVE_UNMOUNTED": &cfg.Console.PreserveUnmounted,
		"AOIFORGE_SEED_FIXTURES":      &cfg.Store.SeedFixtures,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"AOIFORGE_SESSION_TTL":      &cfg.Console.SessionTTL,
		"AOIFORGE_BUILD_BASE_DELAY": &cfg.Build.BaseDelay,
		"AOIFORGE_BUILD_JITTER":     &cfg.Build.Jitter,
		"AOIFORGE_IMPORT_DELAY":     &cfg.Import.Delay,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid store driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Build.BaseDelay <= 0 || c.Build.Jitter < 0 {
		return fmt.Errorf("invalid build delays %s + %s", c.Build.BaseDelay, c.Build.Jitter)
	}
	if c.Import.Delay < 0 {
		return fmt.Errorf("invalid import delay %s", c.Import.Delay)
	}
	if c.Console.SessionTTL <= 0 {
		return fmt.Errorf("invalid session ttl %s", c.Console.SessionTTL)
	}
	if strings.TrimSpace(c.Metrics.Path) == "" || !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path %q", c.Metrics.Path)
	}
	for _, d := range c.Datasets {
		if strings.TrimSpace(d.Ref) == "" {
			return fmt.Errorf("dataset %q has no ref", d.Label)
		}
	}
	return nil
}

// Registry builds the class registry from the configured classes.
func (c Config) Registry() (*class.Registry, error) {
	if len(c.Classes) == 0 {
		return class.Default(), nil
	}
	return class.NewRegistry(c.Classes)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
