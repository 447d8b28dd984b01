package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recordd/recordd/pkg/config"
	"github.com/recordd/recordd/pkg/engine"
	"github.com/recordd/recordd/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	configFile string
	host       string
	port       int
	logLevel   string
	logFormat  string

	// ready is called with the server URL once it is listening.
	ready func(url string)
}

func (o *serveOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configFile, "config", "c", "", "Path to a YAML or JSON config file (env: RECORDD_CONFIG)")
	f.StringVar(&o.host, "host", "", "Interface to listen on (env: RECORDD_HOST)")
	f.IntVarP(&o.port, "port", "p", config.DefaultPort, "Port to listen on (env: RECORDD_PORT, PORT)")
	f.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error (env: RECORDD_LOG_LEVEL)")
	f.StringVar(&o.logFormat, "log-format", "text", "Log format: text, json (env: RECORDD_LOG_FORMAT)")
}

func newServeCommand() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the record server",
		Long: `Start the record server and block until interrupted.

Settings are resolved from defaults, then the config file, then the
environment, then flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

// resolveConfig loads the config and applies the flags that were set
// explicitly on cmd.
func resolveConfig(cmd *cobra.Command, opts *serveOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	log, err := logging.FromStrings(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	srv, err := engine.NewServer(cfg, engine.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return err
	}
	if opts.ready != nil {
		opts.ready(srv.URL())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
