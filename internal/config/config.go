package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName names the data and config directories
const AppName = "dida"

// Config holds the resolved application settings
type Config struct {
	DBPath string    `mapstructure:"db_path"`
	Log    LogConfig `mapstructure:"log"`
	UI     UIConfig  `mapstructure:"ui"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// LogConfig controls the rotating log file
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// UIConfig holds TUI preferences
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DataDir returns the directory holding the database and log file:
// $XDG_DATA_HOME/dida, falling back to ~/.local/share/dida
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, AppName), nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/dida/config.yaml, falling back
// to the platform user config directory
func DefaultConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = dir
	}
	return filepath.Join(configDir, AppName, "config.yaml"), nil
}

// Load reads configuration from, in increasing precedence: defaults, the
// config file, and DIDA_* environment variables (a .env file in the
// working directory is loaded first). An explicit path must exist; the
// default path is optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dataDir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("db_path", filepath.Join(dataDir, AppName+".db"))
	v.SetDefault("log.file", filepath.Join(dataDir, AppName+".log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("ui.theme", "dark")

	// DIDA_DB_PATH, DIDA_LOG_LEVEL, ...
	v.SetEnvPrefix("DIDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		if path, err = DefaultConfigPath(); err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}

	file := ""
	if _, statErr := os.Stat(path); statErr == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		file = path
	} else if explicit {
		return nil, fmt.Errorf("read config %s: %w", path, statErr)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.Log.File = expandHome(cfg.Log.File)
	return cfg, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
