package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultV4Source = "http://download.maxmind.com/download/geoip/database/asnum/GeoIPASNum2.zip"
	DefaultV6Source = "http://download.maxmind.com/download/geoip/database/asnum/GeoIPASNum2v6.zip"
)

var (
	// Version information - read from build info
	Version   string
	BuildTime string
	GitCommit string
)

func init() {
	initVersionInfo()
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

// Load reads the configuration file at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	config := &Config{}
	if path != "" {
		if err := loadConfigFromFile(path, config); err != nil {
			return nil, err
		}
	}
	applyDefaults(config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

func loadConfigFromFile(path string, config *Config) error {
	configFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer configFile.Close()

	// JSON is a subset of YAML, so one decoder serves both.
	fileExt := strings.ToLower(filepath.Ext(path))
	switch fileExt {
	case ".yaml", ".yml", ".json":
		decoder := yaml.NewDecoder(configFile)
		decoder.KnownFields(true)
		if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to decode configuration file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported configuration file format: %s", fileExt)
	}
	return nil
}

// applyDefaults fills in every field the file left empty.
func applyDefaults(config *Config) {
	if config.V4Source == "" {
		config.V4Source = DefaultV4Source
	}
	if config.V6Source == "" {
		config.V6Source = DefaultV6Source
	}
	if config.OnMalformed == "" {
		config.OnMalformed = "fail"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

func (c *Config) Validate() error {
	switch c.OnMalformed {
	case "fail", "skip":
	default:
		return fmt.Errorf("on_malformed must be fail or skip, got %q", c.OnMalformed)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}

// initVersionInfo reads version information from Go build info
func initVersionInfo() {
	Version = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				GitCommit = setting.Value[:7]
			} else {
				GitCommit = setting.Value
			}
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				GitCommit += "-dirty"
			}
		}
	}
}
