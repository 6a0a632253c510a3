// Package config loads and validates the YAML configuration.
// It applies defaults so the daemon can rely on fully populated values.
package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds the managed tree and upload staging locations.
type StorageConfig struct {
	Root   string `yaml:"root"`
	TmpDir string `yaml:"tmp_dir"`
}

// HTTPConfig holds HTTP server settings. AllowedOrigins lists the
// origins permitted to call the API cross-origin; "*" allows any.
// Empty disables CORS entirely.
type HTTPConfig struct {
	Bind           string   `yaml:"bind"`
	Port           int      `yaml:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SessionConfig names the deployment in minted session identifiers.
type SessionConfig struct {
	Type  string `yaml:"type"`
	Realm string `yaml:"realm"`
}

// WebDAVConfig holds the optional WebDAV surface settings.
type WebDAVConfig struct {
	Enable bool   `yaml:"enable"`
	Prefix string `yaml:"prefix"`
}

// Config mirrors the static-files-manager.yaml schema.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Session SessionConfig `yaml:"session"`
	WebDAV  WebDAVConfig  `yaml:"webdav"`
}

// Load reads a YAML config file, applies defaults, and validates it.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, errors.New("config path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, err
	}
	c.DB.Path = strings.TrimSpace(c.DB.Path)
	c.Storage.Root = strings.TrimSpace(c.Storage.Root)
	c.Storage.TmpDir = strings.TrimSpace(c.Storage.TmpDir)
	return c, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	applyDefaults(&c)
	return c
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Path == "" {
		c.DB.Path = "./data/static-files-manager.db"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./static"
	}
	if c.Storage.TmpDir == "" {
		c.Storage.TmpDir = "./tmp"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 128
	}
	if c.Session.Type == "" {
		c.Session.Type = "client"
	}
	if c.Session.Realm == "" {
		c.Session.Realm = "static-files-manager"
	}
	if c.WebDAV.Prefix == "" {
		c.WebDAV.Prefix = "/webdav"
	}
}

func validate(c *Config) error {
	if strings.TrimSpace(c.DB.Path) == "" {
		return errors.New("db.path is required")
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		return errors.New("storage.root is required")
	}
	if strings.TrimSpace(c.Storage.TmpDir) == "" {
		return errors.New("storage.tmp_dir is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port is invalid")
	}
	if c.HTTP.MaxUploadMB < 1 || c.HTTP.MaxUploadMB > 102400 {
		return errors.New("http.max_upload_mb is invalid")
	}
	for _, o := range c.HTTP.AllowedOrigins {
		if strings.TrimSpace(o) == "" || strings.ContainsAny(o, " \t") {
			return errors.New("http.allowed_origins entries must be non-empty and contain no whitespace")
		}
	}
	if strings.TrimSpace(c.Session.Type) == "" || strings.TrimSpace(c.Session.Realm) == "" {
		return errors.New("session.type and session.realm are required")
	}
	if strings.ContainsAny(c.Session.Type+c.Session.Realm, ": ") {
		return errors.New("session.type and session.realm must not contain ':' or spaces")
	}
	return nil
}
