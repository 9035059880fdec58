// Package config loads service settings.
//
// Values come from built-in defaults, then the YAML file named by CONFIG_PATH,
// then environment variables (a .env file in the working directory is loaded
// first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Render  RenderConfig  `yaml:"render"`
	Session SessionConfig `yaml:"session"`
	Logger  LoggerConfig  `yaml:"logger"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type UploadConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type RenderConfig struct {
	// FontDirs are scanned for .ttf files matching template fonts.
	FontDirs     []string `yaml:"font_dirs"`
	FallbackFont string   `yaml:"fallback_font"`
	// Padding in points added around the erased placeholder box.
	Padding     float64 `yaml:"padding"`
	ArchiveName string  `yaml:"archive_name"`
}

type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  time.Minute,
		},
		Upload: UploadConfig{
			Dir:      "uploads",
			MaxBytes: 16 << 20,
		},
		Render: RenderConfig{
			FontDirs:    []string{"/usr/share/fonts", "/usr/local/share/fonts"},
			Padding:     1,
			ArchiveName: "diplomas.zip",
		},
		Session: SessionConfig{
			TTL:           5 * time.Minute,
			SweepInterval: 10 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration from CONFIG_PATH (optional) and the environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. An empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
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
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Upload.Dir = v
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_MB: %w", err)
		}
		cfg.Upload.MaxBytes = mb << 20
	}
	if v := os.Getenv("FONT_DIRS"); v != "" {
		cfg.Render.FontDirs = filepath.SplitList(v)
	}
	if v := os.Getenv("FALLBACK_FONT"); v != "" {
		cfg.Render.FallbackFont = v
	}
	if v := os.Getenv("ARCHIVE_NAME"); v != "" {
		cfg.Render.ArchiveName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logger.File = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Server.Port)
	case c.Upload.Dir == "":
		return errors.New("upload dir must not be empty")
	case c.Upload.MaxBytes <= 0:
		return fmt.Errorf("invalid upload limit %d", c.Upload.MaxBytes)
	case c.Render.ArchiveName == "":
		return errors.New("archive name must not be empty")
	case c.Render.Padding < 0:
		return fmt.Errorf("invalid padding %v", c.Render.Padding)
	case c.Session.TTL <= 0:
		return fmt.Errorf("invalid session ttl %v", c.Session.TTL)
	case c.Session.SweepInterval <= 0:
		return fmt.Errorf("invalid session sweep interval %v", c.Session.SweepInterval)
	}
	return nil
}
