package config

import (
	"path/filepath"
	"time"
)

// Config is the top-level vertexctl configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog" yaml:"catalog"`
	DataDir  string         `mapstructure:"data_dir" yaml:"data_dir"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve"`
}

// CatalogConfig locates the remote catalog.
type CatalogConfig struct {
	URL    string `mapstructure:"url" yaml:"url"`
	Accept string `mapstructure:"accept" yaml:"accept"`
}

// StoreConfig names the persisted catalog document inside DataDir.
type StoreConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// DownloadConfig tunes archive downloads.
type DownloadConfig struct {
	UpdateRate    time.Duration `mapstructure:"update_rate" yaml:"update_rate"`
	ExtractToDisk bool          `mapstructure:"extract_to_disk" yaml:"extract_to_disk"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// ServeConfig holds the local API server address.
type ServeConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// StorePath returns the full path of the catalog document.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.File) {
		return c.Store.File
	}
	return filepath.Join(c.DataDir, c.Store.File)
}

// GamesDir returns the root under which each game gets its own folder.
func (c *Config) GamesDir() string {
	return filepath.Join(c.DataDir, "games")
}
