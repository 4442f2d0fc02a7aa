package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scanpipe/scanpipe"
	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with all subcommands attached
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	scanFlags := &ScanFlags{}
	historyFlags := &APIFlags{}
	exportFlags := &APIFlags{}
	clearFlags := &APIFlags{}
	statusFlags := &APIFlags{}

	scanpipeCommand := command{}

	root := createRootCommand(globalFlags)

	root.AddCommand(
		createScanCommand(scanpipeCommand, scanFlags),
		createHistoryCommand(scanpipeCommand, historyFlags),
		createExportCommand(scanpipeCommand, exportFlags),
		createClearCommand(scanpipeCommand, clearFlags),
		createStatusCommand(scanpipeCommand, statusFlags),
		createServeCommand(globalFlags),
	)

	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "scanpipe",
		Short: "Barcode scan ingestion pipeline",
		Long: `Scanpipe ingests decoded barcode payloads, debounces re-detections,
keeps a bounded durable history and syncs each accepted scan to a remote
endpoint.

Examples:
  scanpipe serve --config=config.toml                 # Start daemon
  scanpipe scan --payload=ABC123                      # Submit a scan
  scanpipe history --api-url=http://remote:8080/api   # Remote history`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

func addAPIFlags(cmd *cobra.Command, flags *APIFlags) {
	cmd.Flags().StringVar(&flags.APIUrl, "api-url", "", "daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
}

// createScanCommand creates the scan subcommand
func createScanCommand(scanpipeCommand command, scanFlags *ScanFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Submit a decoded payload to the daemon",
		Long: `Submit one decoded barcode payload to the running daemon.
A scan arriving while the pipeline is busy is dropped, not queued.

Examples:
  scanpipe scan --payload=ABC123
  scanpipe scan --payload=ABC123 --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanpipeCommand.Scan(*scanFlags)
		},
	}

	cmd.Flags().StringVar(&scanFlags.Payload, "payload", "", "decoded payload text")
	addAPIFlags(cmd, &scanFlags.APIFlags)

	if err := cmd.MarkFlagRequired("payload"); err != nil {
		panic(err)
	}

	return cmd
}

// createHistoryCommand creates the history subcommand
func createHistoryCommand(scanpipeCommand command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List retained scans, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanpipeCommand.History(*flags)
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

// createExportCommand creates the export subcommand
func createExportCommand(scanpipeCommand command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the history as shareable flat text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanpipeCommand.Export(*flags)
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

// createClearCommand creates the clear subcommand
func createClearCommand(scanpipeCommand command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Wipe the scan history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanpipeCommand.Clear(*flags)
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(scanpipeCommand command, flags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline state and record count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanpipeCommand.Status(*flags)
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{
		ConfigPath: globalFlags.ConfigPath,
	}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the scanpipe daemon",
		Long: `Start the scanpipe daemon. The daemon owns the pipeline: it accepts
scans over HTTP, persists the history and syncs accepted scans upstream.

Examples:
  scanpipe serve config.toml
  scanpipe serve --config=config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveFlags.ConfigPath == "" {
				serveFlags.ConfigPath = globalFlags.ConfigPath
			}
			return runServeCommand(serveFlags, args)
		},
	}

	return cmd
}

func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}
	if configPath == "" {
		return fmt.Errorf("config file required for serve command. Use --config=config.toml or provide as argument")
	}

	cfg, err := scanpipe.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.Server == nil {
		return fmt.Errorf("server must be configured to run serve command")
	}

	log := scanpipe.NewLogger(cfg.Log)

	p, err := scanpipe.New(scanpipe.Config{
		StoreDSN:      cfg.Store.DSN,
		Endpoint:      cfg.Uplink.Endpoint,
		SyncAttempts:  cfg.Uplink.Attempts,
		RetryInterval: cfg.Uplink.RetryInterval,
		SyncTimeout:   cfg.Uplink.Timeout,
		Cooldown:      cfg.Pipeline.Cooldown,
		FeedbackType:  cfg.Feedback.Type,
		FeedbackCmd:   cfg.Feedback.Command,
		AuditDSNs:     cfg.Audit.DSNs,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		if err := scanpipe.RegisterMetricsDefault(); err != nil {
			fmt.Printf("Warning: failed to register metrics: %v\n", err)
		}
		if cfg.Metrics.Listen != "" {
			go func() {
				if err := scanpipe.ServeMetrics(cfg.Metrics.Listen); err != nil {
					fmt.Printf("Metrics server error: %v\n", err)
				}
			}()
		}
	}

	server, err := p.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath)
	if err != nil {
		_ = p.Close()
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Printf("Starting scanpipe server on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	if err := server.Close(); err != nil {
		_ = p.Close()
		return err
	}
	return p.Close()
}
