package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all mhouse configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Monday   MondayConfig   `toml:"monday"`
	Redis    RedisConfig    `toml:"redis"`
	Log      LogConfig      `toml:"log"`
	TUI      TUIConfig      `toml:"tui"`
}

// GeneralConfig holds property-wide settings.
type GeneralConfig struct {
	TotalRooms     int     `toml:"total_rooms"`
	OpeningBalance float64 `toml:"opening_balance"`
	VacancyHorizon int     `toml:"vacancy_horizon_days"`
}

// ServerConfig holds settings for the HTTP API daemon.
type ServerConfig struct {
	Addr               string `toml:"addr"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
	EventsBuffer       int    `toml:"events_buffer"`
	CORSOrigin         string `toml:"cors_origin"`
}

// DatabaseConfig selects where the snapshot is read from.
// SQLitePath is the local store; PostgresDSN, when set, is the upstream source.
type DatabaseConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	Schema      string `toml:"schema"`
}

// MondayConfig holds CRM credentials and board identifiers.
type MondayConfig struct {
	APIToken        string            `toml:"api_token,omitempty"`
	BaseURL         string            `toml:"base_url,omitempty"`
	RoomsBoard      string            `toml:"rooms_board"`
	ContractsBoard  string            `toml:"contracts_board"`
	QualifiedBoard  string            `toml:"qualified_board"`
	PageSize        int               `toml:"page_size"`
	TimeoutSec      int               `toml:"timeout_sec"`
	ColumnOverrides map[string]string `toml:"columns,omitempty"`
}

// RedisConfig enables the optional response cache.
type RedisConfig struct {
	Addr   string `toml:"addr,omitempty"`
	DB     int    `toml:"db"`
	TTLSec int    `toml:"ttl_sec"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TUIConfig holds dashboard preferences.
type TUIConfig struct {
	Theme              string `toml:"theme"`
	AutoRefresh        bool   `toml:"auto_refresh"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
	APIURL             string `toml:"api_url,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			TotalRooms:     120,
			VacancyHorizon: 60,
		},
		Server: ServerConfig{
			Addr:               "127.0.0.1:8002",
			RefreshIntervalSec: 30,
			EventsBuffer:       200,
			CORSOrigin:         "*",
		},
		Database: DatabaseConfig{
			Schema: "more_house",
		},
		Monday: MondayConfig{
			RoomsBoard:     "9376648770",
			ContractsBoard: "8606133913",
			QualifiedBoard: "9188309936",
			PageSize:       100,
			TimeoutSec:     30,
		},
		Redis: RedisConfig{
			TTLSec: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		TUI: TUIConfig{
			Theme:              "more-house",
			AutoRefresh:        true,
			RefreshIntervalSec: 30,
		},
	}
}

// RefreshInterval returns the daemon snapshot reload interval.
func (c ServerConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mhouse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mhouse")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the local store.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mhouse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mhouse")
}

// SQLitePathOrDefault returns the configured store path, or the default under DataDir.
func (c DatabaseConfig) SQLitePathOrDefault() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(DataDir(), "mhouse.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file in the working directory is loaded first and environment
// variables take precedence over file values.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("MONDAY_API_TOKEN"); v != "" {
		cfg.Monday.APIToken = v
	}
	if v := os.Getenv("MONDAY_BOARD_ID_ROOMS"); v != "" {
		cfg.Monday.RoomsBoard = v
	}
	if v := os.Getenv("MONDAY_BOARD_ID_CONTRACTS"); v != "" {
		cfg.Monday.ContractsBoard = v
	}
	if v := os.Getenv("MONDAY_BOARD_ID_QUALIFIED"); v != "" {
		cfg.Monday.QualifiedBoard = v
	}
	if v := os.Getenv("TIMESCALE_SERVICE_URL"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("DB_SCHEMA"); v != "" {
		cfg.Database.Schema = v
	}
	if v := os.Getenv("MHOUSE_DB"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Addr = fmt.Sprintf("127.0.0.1:%d", port)
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TOTAL_ROOMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.General.TotalRooms = n
		}
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
