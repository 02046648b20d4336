package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/logzship"
	"github.com/bft-labs/logzship/internal/adapters/metrics"
	"github.com/bft-labs/logzship/internal/cliconfig"
	"github.com/bft-labs/logzship/internal/spool"
	"github.com/bft-labs/logzship/pkg/log"
)

const helpDescription = `
Ship CI build logs to a Logz.io listener.

Log lines are formatted as JSON records carrying the build metadata, batched
up to the configured size and posted over HTTPS, gzip-compressed by default.

Envelope documents look like {"message": ["line", ...], "key": "value", ...}.
`

var exampleUsage = strings.TrimSpace(`
  logzship push envelope.json --token <logzio-token>
  logzship ship --build-data build.json --source-host https://ci.example.com/ console.log
  logzship watch --spool-dir /var/spool/logzship --metrics-addr :9102
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return logzship.Version
}

// session holds what every subcommand needs once configuration is resolved.
type session struct {
	cfg     cliconfig.Config
	logger  log.Logger
	client  *logzship.Client
	metrics *http.Server
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var s session

	bootLogger, _ := log.NewConsoleLogger(os.Stderr, "info")

	root := &cobra.Command{
		Use:           "logzship",
		Short:         "Ship CI build logs to a Logz.io listener",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd, cfgPath, cfg)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.logzship/config.toml)")
	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Logz.io listener URL")
	flags.Var(&secretValue{dst: &cfg.Token}, "token", "Logz.io account token (or LOGZSHIP_TOKEN)")
	flags.StringVar(&cfg.Type, "type", cfg.Type, "log type tag sent with every request")
	flags.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "timeout for connecting to the listener")
	flags.DurationVar(&cfg.SocketTimeout, "socket-timeout", cfg.SocketTimeout, "timeout waiting for the listener's response")
	flags.BoolVar(&cfg.Compress, "compress", cfg.Compress, "gzip request bodies")
	flags.Var(&sizeValue{dst: &cfg.MaxBatchSize}, "max-batch-size", "batch size that triggers a send (e.g. 8MB)")
	flags.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "attempts per batch on connection errors and 5xx responses")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address serving Prometheus /metrics (disabled when empty)")

	root.AddCommand(
		newPushCmd(&s),
		newShipCmd(&s, &cfg),
		newWatchCmd(&s, &cfg),
	)

	if err := root.Execute(); err != nil {
		logger := s.logger
		if logger == nil {
			logger = bootLogger
		}
		logger.Error("logzship", log.Err(err))
		os.Exit(1)
	}
}

// open resolves configuration (flags > env > file > defaults), then builds
// the logger, the client and the optional metrics listener.
func (s *session) open(cmd *cobra.Command, cfgPath string, cfg cliconfig.Config) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := log.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.logger = logger

	// Token is a Secret and logs masked.
	logger.Info("configuration", log.Any("config", cfg))

	opts := []logzship.Option{
		logzship.WithLogger(logger),
		logzship.WithUserAgent("logzship/" + getVersion()),
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, logzship.WithMetrics(prometheus.DefaultRegisterer))
		s.metrics = metrics.LaunchListener(cfg.MetricsAddr, prometheus.DefaultGatherer, logger)
	}

	client, err := logzship.New(cfg.RequestOptions(), opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	s.client = client
	return nil
}

func (s *session) close() error {
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.Shutdown(ctx)
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newPushCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "push [file|-]",
		Short: "Push one envelope document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			in, err := openInput(name)
			if err != nil {
				return err
			}
			defer in.Close()

			doc, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()
			if err := s.client.Push(ctx, doc); err != nil {
				return fmt.Errorf("push: %w", err)
			}
			s.logger.Info("envelope pushed", log.Int("bytes", len(doc)))
			return nil
		},
	}
}

func newShipCmd(s *session, cfg *cliconfig.Config) *cobra.Command {
	var buildDataPath, buildTimestamp string

	cmd := &cobra.Command{
		Use:   "ship --build-data <file> [log-file|-]",
		Short: "Build an envelope from build metadata and log lines, then push it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := os.ReadFile(buildDataPath)
			if err != nil {
				return fmt.Errorf("read build data: %w", err)
			}
			if !json.Valid(metadata) {
				return fmt.Errorf("build data %s is not valid JSON", buildDataPath)
			}
			if buildTimestamp == "" {
				buildTimestamp = time.Now().UTC().Format(time.RFC3339)
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			in, err := openInput(name)
			if err != nil {
				return err
			}
			defer in.Close()
			lines, err := readLines(in)
			if err != nil {
				return fmt.Errorf("read log lines: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			data := logzship.BuildData{Timestamp: buildTimestamp, Metadata: metadata}
			if err := s.client.Ship(ctx, data, s.cfg.SourceHost, lines); err != nil {
				return fmt.Errorf("ship: %w", err)
			}
			s.logger.Info("build log shipped", log.Int("lines", len(lines)))
			return nil
		},
	}

	cmd.Flags().StringVar(&buildDataPath, "build-data", "", "JSON file with the build metadata")
	cmd.Flags().StringVar(&buildTimestamp, "build-timestamp", "", "build timestamp (default: now)")
	cmd.Flags().StringVar(&cfg.SourceHost, "source-host", cfg.SourceHost, "URL of the CI server the logs come from")
	_ = cmd.MarkFlagRequired("build-data")
	return cmd
}

func newWatchCmd(s *session, cfg *cliconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch --spool-dir <dir>",
		Short: "Push every envelope file dropped into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.SpoolDir == "" {
				return fmt.Errorf("spool-dir is required")
			}
			w, err := spool.New(spool.Config{
				Dir:         s.cfg.SpoolDir,
				SettleDelay: s.cfg.SettleDelay,
			}, s.client, s.logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			if err := w.Run(ctx); err != nil {
				return err
			}
			s.logger.Info("received signal, stopping...")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.SpoolDir, "spool-dir", cfg.SpoolDir, "directory to watch for *.json envelopes")
	cmd.Flags().DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "quiet period before a spool file is pushed")
	return cmd
}
