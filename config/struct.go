package config

import "time"

// Config represents the configuration for the application.
type Config struct {
	// V4Source is the location of the zipped IPv4 range table.
	V4Source string `yaml:"v4_source"`
	// V6Source is the location of the zipped IPv6 range table.
	V6Source string `yaml:"v6_source"`
	// OnMalformed is "fail" (abort the run) or "skip" (log and drop the row).
	OnMalformed string `yaml:"on_malformed"`
	// HTTPTimeout bounds each download, e.g. "2m". Zero means no timeout.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// MetricsFile, when set, receives run metrics in Prometheus text format.
	MetricsFile string `yaml:"metrics_file"`
	// Log configures the stderr logger.
	Log Log `yaml:"log"`
}

type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // console or json
}
