package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"smartsummarizer/core"
	"smartsummarizer/logging"
	"smartsummarizer/pdfprocessor"
	"smartsummarizer/shutdown"
	"smartsummarizer/webui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return core.ExitCodeName(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	if code == core.ExitCodeSuccess {
		return nil
	}
	return &exitError{code: code, err: err}
}

// run executes the command line and returns the process exit code.
// Flag and argument mistakes exit with ExitCodeUsage.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return core.ExitCodeSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	fmt.Fprintln(stderr, "Run 'smartsummarizer --help' for usage.")
	return core.ExitCodeUsage
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smartsummarizer",
		Short: "Summarize text and PDFs with an LLM",
		Long: "Smart Summarizer serves a single page that summarizes pasted text or an\n" +
			"uploaded PDF. Configuration is read from the environment and an optional .env file.",
		Version:       core.GetVersionInfo(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitWith(runServe(cmd.ErrOrStderr()), nil)
		},
	}
	root.AddCommand(serveCmd(), summarizeCmd(), serviceCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the summarizer page (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitWith(runServe(cmd.ErrOrStderr()), nil)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smartsummarizer %s\n", core.GetVersionInfo())
		},
	}
}

// loadConfig reads .env and the environment. A missing .env is only noted.
func loadConfig() (*core.Config, error) {
	if err := core.LoadDotEnv(); err != nil {
		var cfgErr *core.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Code != core.ErrCodeEnvFileMissing {
			return nil, err
		}
	}
	return core.LoadConfig()
}

// newLogger builds the process logger. console nil means stdout.
func newLogger(cfg *core.Config, console zapcore.WriteSyncer) (*logging.Logger, error) {
	return logging.NewLogger(logging.Options{
		Development: cfg.DevMode,
		FilePath:    cfg.LogFile,
		Level:       cfg.LogLevel,
		Rotation: logging.Rotation{
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		},
		Console: console,
	})
}

func printConfigError(w io.Writer, err error) {
	if cfgErr, ok := core.IsConfigError(err); ok {
		fmt.Fprintf(w, "Configuration error [%s]: %s\n", cfgErr.Code, cfgErr.Message)
		if cfgErr.Action != "" {
			fmt.Fprintf(w, "  -> %s\n", cfgErr.Action)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// runServe serves the page until SIGINT or SIGTERM.
func runServe(stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		printConfigError(stderr, err)
		return core.ExitCodeError
	}
	logger, err := newLogger(cfg, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}

	m := shutdown.NewManager(logger)
	m.Start()
	return serve(m, cfg, logger)
}

// serve runs the web page until m's context is cancelled, then shuts down.
func serve(m *shutdown.Manager, cfg *core.Config, logger *logging.Logger) int {
	logger.Info("Starting Smart Summarizer", zap.String("version", core.GetVersionInfo()))

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to start", zap.Error(err))
		_ = logger.Sync()
		return core.ExitCodeError
	}
	a.register(m)
	a.startRetention(m.Context())

	provider, model := a.service.Provider()
	serverCfg := webui.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	serverCfg.Password = cfg.WebUIPassword
	serverCfg.RateLimitPerMinute = cfg.RateLimitPerMinute
	serverCfg.MaxUploadBytes = cfg.MaxUploadBytes
	serverCfg.Info = webui.PageInfo{
		Provider:      provider,
		Model:         model,
		HasDefaultKey: a.service.HasDefaultKey(),
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		WordThreshold: cfg.WordThreshold,
		Version:       core.GetVersionInfo(),
	}

	deps := webui.Dependencies{
		Service:   a.service,
		Stats:     a.metrics,
		Tracker:   m,
		Extractor: pdfprocessor.NewExtractor(pdfprocessor.Options{MaxPages: cfg.PDFMaxPages}),
	}
	if a.repo != nil {
		deps.History = a.repo
	}
	if a.prom != nil {
		deps.Metrics = a.prom.Handler()
	}

	srv, err := webui.NewServer(serverCfg, deps, logger)
	if err != nil {
		logger.Error("Failed to create web server", zap.Error(err))
		_ = m.Shutdown()
		return core.ExitCodeError
	}
	m.Register("http-server", shutdown.PriorityHTTPServer, shutdown.HTTPServer(srv.HTTPServer()))

	if !a.service.HasDefaultKey() {
		logger.Warn("No LLM API key configured; the page will ask for one",
			zap.String("provider", provider))
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(m.Context())
		m.Trigger()
	}()

	<-m.Context().Done()

	code := m.ExitCode()
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Web server stopped", zap.Error(err))
			code = core.ExitCodeError
		}
	default:
	}

	if err := m.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		if code == core.ExitCodeSuccess {
			code = core.ExitCodeError
		}
	}
	return code
}
