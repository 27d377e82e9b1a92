package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultCatalogURL is the published game catalog.
const DefaultCatalogURL = "https://www.dropbox.com/scl/fi/a9i2fyejxce7ka4gc7a75/Games.json?rlkey=scfhkrbowkubx1e8mtatwr56c&st=aiim0f18&dl=1"

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vertexctl", "config.yml")
}

// ResolvePath picks the config file: explicit path, then VERTEX_CONFIG, then
// the default location.
func ResolvePath(path string) string {
	if path != "" {
		return ExpandHome(path)
	}
	if env := os.Getenv("VERTEX_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	return DefaultPath()
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Catalog:  CatalogConfig{URL: DefaultCatalogURL, Accept: "application/json"},
		DataDir:  defaultDataDir(),
		Store:    StoreConfig{File: "vertex_store.json"},
		Download: DownloadConfig{UpdateRate: time.Second},
		HTTP:     HTTPConfig{Timeout: 60 * time.Second},
		Log:      LogConfig{Level: "warn"},
		Serve:    ServeConfig{Host: "127.0.0.1", Port: 7410},
	}
}

// Load reads the config from disk (or env). A missing file is fine: the
// defaults apply and `vertexctl config init` can write one.
func Load(path string) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("catalog.url", d.Catalog.URL)
	v.SetDefault("catalog.accept", d.Catalog.Accept)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("store.file", d.Store.File)
	v.SetDefault("download.update_rate", d.Download.UpdateRate)
	v.SetDefault("download.extract_to_disk", d.Download.ExtractToDisk)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("serve.host", d.Serve.Host)
	v.SetDefault("serve.port", d.Serve.Port)

	v.SetEnvPrefix("VERTEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(ResolvePath(path))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DataDir = ExpandHome(cfg.DataDir)
	if cfg.Download.UpdateRate <= 0 {
		cfg.Download.UpdateRate = d.Download.UpdateRate
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = d.HTTP.Timeout
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(cfg *Config, path string) error {
	path = ResolvePath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "vertexctl")
}
