package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TDiblik/asnranges/asnmap"
	"github.com/TDiblik/asnranges/config"
	"github.com/TDiblik/asnranges/metrics"
	"github.com/TDiblik/asnranges/ranges"
	"github.com/TDiblik/asnranges/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

type buildFlags struct {
	v4Source      string
	v6Source      string
	skipMalformed bool
	metricsFile   string
}

// loggedError is a failure that was already reported through the run
// logger.
type loggedError struct {
	err error
}

func (e loggedError) Error() string { return e.err.Error() }
func (e loggedError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless the run logger has already logged it.
func reportError(w io.Writer, err error) {
	var logged loggedError
	if errors.As(err, &logged) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func newRootCommand() *cobra.Command {
	global := &globalFlags{}
	build := &buildFlags{}

	command := &cobra.Command{
		Use:   "asnranges",
		Short: "Combine the IPv4 and IPv6 ASN range tables into one CSV stream",
		Long: "Downloads the zipped IPv4 and IPv6 IP-to-ASN range tables and writes one\n" +
			"<low>,<high>,<asn> line per range to stdout, IPv4 ranges first.\n" +
			"IPv4 addresses are written in their IPv4-compatible IPv6 form (::0a01:0101).",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, global, build)
		},
	}

	persistent := command.PersistentFlags()
	persistent.StringVarP(&global.configPath, "config", "c", "", "path to a YAML or JSON configuration file")
	persistent.StringVar(&global.logLevel, "log-level", "", "log level: debug, info, warn or error")

	flags := command.Flags()
	flags.StringVar(&build.v4Source, "v4-source", "", "URL or path of the zipped IPv4 table")
	flags.StringVar(&build.v6Source, "v6-source", "", "URL or path of the zipped IPv6 table")
	flags.BoolVar(&build.skipMalformed, "skip-malformed", false, "log and skip malformed rows instead of aborting")
	flags.StringVar(&build.metricsFile, "metrics-file", "", "write Prometheus metrics for the run to this file")

	command.AddCommand(newLookupCommand(global), newVersionCommand())
	return command
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly on the command line.
func loadConfig(cmd *cobra.Command, global *globalFlags, build *buildFlags) (*config.Config, error) {
	cfg, err := config.Load(global.configPath)
	if err != nil {
		return nil, err
	}
	if global.logLevel != "" {
		cfg.Log.Level = global.logLevel
	}
	if build != nil {
		flags := cmd.Flags()
		if flags.Changed("v4-source") {
			cfg.V4Source = build.v4Source
		}
		if flags.Changed("v6-source") {
			cfg.V6Source = build.v6Source
		}
		if flags.Changed("skip-malformed") {
			cfg.OnMalformed = string(ranges.PolicyFail)
			if build.skipMalformed {
				cfg.OnMalformed = string(ranges.PolicySkip)
			}
		}
		if flags.Changed("metrics-file") {
			cfg.MetricsFile = build.metricsFile
		}
	}
	return cfg, nil
}

func runBuild(cmd *cobra.Command, global *globalFlags, build *buildFlags) error {
	cfg, err := loadConfig(cmd, global, build)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	fetcher := source.NewFetcher(source.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: "asnranges/" + config.Version,
		Logger:    logger,
	})
	opener := ranges.OpenerFunc(func(ctx context.Context, location string) (ranges.RowReader, error) {
		rows, err := fetcher.Fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		return rows, nil
	})
	builder := ranges.NewBuilder(opener, ranges.Options{
		V4Source: cfg.V4Source,
		V6Source: cfg.V6Source,
		Policy:   ranges.MalformedPolicy(cfg.OnMalformed),
		Logger:   logger,
	})

	start := time.Now()
	report, err := builder.Run(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		logger.Error("Run failed", zap.Error(err), zap.Uint64("records", report.Emitted()))
		err = loggedError{err}
	}

	if cfg.MetricsFile != "" {
		recorder := metrics.NewRecorder()
		recorder.Observe(report, time.Since(start), err)
		if writeErr := recorder.WriteFile(cfg.MetricsFile); writeErr != nil {
			logger.Warn("Unable to write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(writeErr))
		}
	}
	return err
}

func newLookupCommand(global *globalFlags) *cobra.Command {
	var table string
	command := &cobra.Command{
		Use:   "lookup --table <file> <address>...",
		Short: "Look up the AS number of addresses in a combined range table",
		Long: "Loads a table written by asnranges (\"-\" reads it from stdin) and prints\n" +
			"<address>,<asn> for every address, 0 when no range contains it.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs := make([]netip.Addr, 0, len(args))
			for _, arg := range args {
				addr, err := netip.ParseAddr(arg)
				if err != nil {
					return err
				}
				addrs = append(addrs, addr)
			}

			cfg, err := loadConfig(cmd, global, nil)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Sync()

			var in io.Reader = cmd.InOrStdin()
			if table != "-" {
				file, err := os.Open(table)
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}

			var m asnmap.Map
			if err := m.Load(in, logger); err != nil {
				return fmt.Errorf("load %s: %w", table, err)
			}
			out := cmd.OutOrStdout()
			for i, addr := range addrs {
				fmt.Fprintf(out, "%s,%d\n", args[i], m.ASN(addr))
			}
			return nil
		},
	}
	command.Flags().StringVarP(&table, "table", "t", "", "combined range table to load, - for stdin")
	command.MarkFlagRequired("table")
	return command
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "asnranges %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
		},
	}
}
