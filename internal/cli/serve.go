package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/quillback/waystone/internal/engine"
	"github.com/quillback/waystone/internal/predicate/lua"
	"github.com/quillback/waystone/internal/protocol"
	"github.com/quillback/waystone/internal/service"
	"github.com/quillback/waystone/internal/transport/ws"
)

// ServeConfig is the merged serve configuration: defaults, then config
// file, then flags, later sources winning.
type ServeConfig struct {
	Listen       string `koanf:"listen"`
	RuleSet      string `koanf:"ruleset"`
	Predicates   string `koanf:"predicates"`
	TestCommands bool   `koanf:"test_commands"`
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command surface over a websocket",
		Long: `Run the engine behind a websocket endpoint. Clients send request
envelopes as text frames on /ws and receive responses plus pushed
notifications; Prometheus metrics are exposed on /metrics.

Configuration merges a YAML config file (--config) with flags; flags
win. With --ruleset the rule set is loaded at startup, otherwise clients
load one over the protocol.

Example config:
  listen: ":8756"
  ruleset: rules.json
  test_commands: false`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, configPath)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return runServe(rootOpts, cfg, cmd)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.Flags().String("listen", ":8756", "listen address")
	cmd.Flags().String("ruleset", "", "rule-set document to load at startup")
	cmd.Flags().String("predicates", "", "Lua predicate script providing game helpers")
	cmd.Flags().Bool("test-commands", false, "enable the test-only protocol commands")

	return cmd
}

// loadServeConfig merges defaults, the config file, and flags.
func loadServeConfig(cmd *cobra.Command, configPath string) (*ServeConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	// Flags override the file. posflag maps "test-commands" to
	// "test-commands"; normalize to the file key explicitly.
	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	cfg := &ServeConfig{
		Listen:       k.String("listen"),
		RuleSet:      k.String("ruleset"),
		Predicates:   k.String("predicates"),
		TestCommands: k.Bool("test_commands") || k.Bool("test-commands"),
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8756"
	}
	return cfg, nil
}

func runServe(opts *RootOptions, cfg *ServeConfig, cmd *cobra.Command) error {
	logger := componentLogger("serve")

	var engOpts []engine.Option
	if cfg.Predicates != "" {
		table, err := lua.LoadFile(cfg.Predicates)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("cannot load predicates: %v", err))
		}
		defer table.Close()
		engOpts = append(engOpts, engine.WithScriptPredicates(table))
	}

	var svcOpts []service.Option
	svcOpts = append(svcOpts, service.WithLogger(logger))
	if cfg.TestCommands {
		svcOpts = append(svcOpts, service.WithTestCommands())
	}
	svc := service.New(engOpts, svcOpts...)

	reg := prometheus.NewRegistry()
	if err := svc.Engine().Metrics().Register(reg); err != nil {
		return err
	}
	if err := svc.Metrics().Register(reg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan error, 1)
	go func() { loopDone <- svc.Run(ctx) }()

	if cfg.RuleSet != "" {
		data, err := os.ReadFile(cfg.RuleSet)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("cannot read rule set: %v", err))
		}
		resp, err := svc.Submit(ctx, &protocol.Request{
			ID:      svc.NewRequestID(),
			Command: protocol.CmdLoadRules,
			Rules:   data,
		})
		if err != nil {
			return err
		}
		if resp.Status != protocol.StatusOK {
			return NewExitError(ExitFailure, fmt.Sprintf("rule set failed to load: %s", resp.Error.Message))
		}
		logger.Info("rule set loaded at startup", "path", cfg.RuleSet)
	}

	wsServer := ws.NewServer(svc, componentLogger("ws"))
	go func() { _ = wsServer.Run(ctx) }()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe() }()
	logger.Info("serving", "listen", cfg.Listen)

	select {
	case err := <-serveErr:
		stop()
		<-loopDone
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}
