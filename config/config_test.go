package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithoutFile(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
	assert.Equal(t, DefaultV4Source, config.V4Source)
	assert.Equal(t, DefaultV6Source, config.V6Source)
	assert.Equal(t, "fail", config.OnMalformed)
	assert.Equal(t, time.Duration(0), config.HTTPTimeout)
	assert.Equal(t, Log{Level: "info", Format: "console"}, config.Log)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
v4_source: ./GeoIPASNum2.zip
on_malformed: skip
http_timeout: 2m
metrics_file: /var/lib/node_exporter/asnranges.prom
log:
  level: debug
  format: json
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./GeoIPASNum2.zip", config.V4Source)
	assert.Equal(t, DefaultV6Source, config.V6Source)
	assert.Equal(t, "skip", config.OnMalformed)
	assert.Equal(t, 2*time.Minute, config.HTTPTimeout)
	assert.Equal(t, "/var/lib/node_exporter/asnranges.prom", config.MetricsFile)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, config.Log)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"v6_source": "https://example.com/v6.zip", "log": {"format": "json"}}`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v6.zip", config.V6Source)
	assert.Equal(t, Log{Level: "info", Format: "json"}, config.Log)
}

func TestLoadEmptyFile(t *testing.T) {
	config, err := Load(writeConfig(t, "config.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		msg     string
	}{
		{"unsupported extension", "config.toml", "x = 1", "unsupported configuration file format: .toml"},
		{"unknown field", "config.yaml", "v4_url: x", "field v4_url not found"},
		{"bad policy", "config.yaml", "on_malformed: ignore", "on_malformed must be fail or skip"},
		{"bad format", "config.yaml", "log:\n  format: xml", "log.format must be console or json"},
		{"negative timeout", "config.yaml", "http_timeout: -1s", "http_timeout must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVersionInfo(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
	assert.NotEmpty(t, GitCommit)
}
