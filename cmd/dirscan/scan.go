package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sec-toolkit/dirscan-toolkit/internal/config"
	"github.com/sec-toolkit/dirscan-toolkit/internal/database"
	"github.com/sec-toolkit/dirscan-toolkit/internal/dedup"
	"github.com/sec-toolkit/dirscan-toolkit/internal/fetcher"
	applog "github.com/sec-toolkit/dirscan-toolkit/internal/log"
	"github.com/sec-toolkit/dirscan-toolkit/internal/model"
	"github.com/sec-toolkit/dirscan-toolkit/internal/report"
	"github.com/sec-toolkit/dirscan-toolkit/internal/scan"
	"github.com/sec-toolkit/dirscan-toolkit/internal/throttle"
	"github.com/sec-toolkit/dirscan-toolkit/internal/tor"
	"github.com/sec-toolkit/dirscan-toolkit/internal/wordlist"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Probe every word-list path on a target",
		Long: `Scan requests <url><path> for every path in the word list and writes the
status of each probe, in word-list order, to the output file.

Probes are limited by --threads (in flight at once) and --rate (started per
second, 0 for unlimited). With --method get, response bodies that match or
closely resemble an earlier body are flagged as duplicates in the log. They
stay in the report unless --drop-duplicates is given.

Examples:
  # HEAD scan with the default word list
  dirscan scan -u https://example.com

  # GET scan with duplicate detection, SARIF output
  dirscan scan -u https://example.com -w words.txt -m get -f sarif

  # Authenticated scan through a SOCKS5 proxy
  dirscan scan -u https://example.com -H "Authorization: Bearer xyz" --proxy 127.0.0.1:1080

  # Scan a hidden service through an embedded Tor daemon
  dirscan scan -u http://exampleonion.onion --tor

Configuration file (.dirscan) example:
  defaults:
    rate: 50
  targets:
    https://staging.example.com:
      headers:
        Authorization: "Bearer token"
      threads: 5`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Target flags
	cmd.Flags().StringP("url", "u", "",
		"Base URL to scan (required)")
	cmd.Flags().StringP("wordlist", "w", config.DefaultWordList,
		"Word list file, one path per line")
	cmd.Flags().StringP("method", "m", "head",
		"HTTP method: get or head")

	// Throughput flags
	cmd.Flags().IntP("threads", "t", config.DefaultWorkers,
		fmt.Sprintf("Maximum concurrent requests (1-%d)", config.MaxWorkers))
	cmd.Flags().IntP("rate", "r", config.DefaultRateLimit,
		"Maximum requests per second (0 for unlimited)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Timeout for each request")

	// Duplicate detection flags
	cmd.Flags().Float64("threshold", config.DefaultThreshold,
		"Similarity ratio at which two bodies count as duplicates")
	cmd.Flags().Int("max-samples", 0,
		"Maximum bodies kept for similarity checks (0 for unlimited; lower values reduce recall)")
	cmd.Flags().Bool("drop-duplicates", false,
		"Leave duplicate responses out of the written report")

	// Request flags
	cmd.Flags().StringArrayP("header", "H", nil,
		"Extra request header \"Name: value\" (repeatable)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header")

	// Transport flags
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("tor", false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: json, sarif or markdown")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"Report file path (for sarif a .json suffix becomes .sarif)")
	cmd.Flags().String("log-dir", config.DefaultLogDir,
		"Directory for the scan log (empty to disable)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .dirscan in current or home directory)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from cobra command flags and the
// configuration file profile for the target.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.BaseURL, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.WordListPath, err = flags.GetString("wordlist"); err != nil {
		return nil, err
	}
	if cfg.Method, err = flags.GetString("method"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = flags.GetInt("threads"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetInt("rate"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Threshold, err = flags.GetFloat64("threshold"); err != nil {
		return nil, err
	}
	if cfg.MaxSamples, err = flags.GetInt("max-samples"); err != nil {
		return nil, err
	}
	if cfg.DropDuplicates, err = flags.GetBool("drop-duplicates"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.OutputFormat, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LogDir, err = flags.GetString("log-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)

	rawHeaders, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	if cfg.Headers, err = config.ParseHeaders(rawHeaders); err != nil {
		return nil, err
	}

	// Load the configuration file.
	// If the user explicitly specified a path, a missing file is an error.
	// Otherwise a missing file just means there are no profiles.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Profiles, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.Profiles = &config.File{Targets: make(map[string]config.Profile)}
	}

	cfg.ApplyProfile(cfg.Profiles.GetProfile(cfg.BaseURL), flags.Changed)

	return cfg, nil
}

// runScan executes a scan described by a validated cfg. Probe lines and the
// summary go to out.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	paths, err := wordlist.Load(cfg.WordListPath)
	if err != nil {
		return fmt.Errorf("failed to load word list: %w", err)
	}
	if len(paths) == 0 {
		logger.Warn("word list is empty", "path", cfg.WordListPath)
	}

	logger.Info("starting scan",
		"target", cfg.BaseURL,
		"method", cfg.Method,
		"paths", len(paths),
		"threads", cfg.Workers,
		"rate", cfg.RateLimit,
		applog.HeaderAttrs(cfg.Headers),
	)

	httpClient, cleanup, err := newHTTPClient(ctx, cfg, logger, out)
	if err != nil {
		return err
	}
	defer cleanup()

	scanLog, err := applog.NewScanLogger(cfg.LogDir, out)
	if err != nil {
		return err
	}
	defer scanLog.Close()

	limiter, err := throttle.NewLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer limiter.Stop()

	gate, err := throttle.NewGate(cfg.Workers)
	if err != nil {
		return err
	}

	f, err := newFetcher(httpClient, cfg, scanLog)
	if err != nil {
		return err
	}

	scanReport := model.NewScanReport(uuid.NewString(), cfg.BaseURL, f.Method())
	scanReport.WordList = cfg.WordListPath
	scanReport.WordListFingerprint = wordlist.Fingerprint(paths)
	scanReport.Workers = cfg.Workers
	scanReport.RateLimit = cfg.RateLimit

	orchestrator := scan.New(f, limiter, gate,
		scan.WithLogger(logger),
		scan.WithProgress(func(done, total int) {
			logger.Debug("progress", "done", done, "total", total)
		}),
	)

	results, err := orchestrator.Run(ctx, paths)
	if err != nil {
		return err
	}
	scanReport.Results = results
	scanReport.FinishedAt = time.Now()

	written := scanReport
	if cfg.DropDuplicates {
		filtered := *scanReport
		filtered.Results = scanReport.WithoutDuplicates()
		written = &filtered
	}

	reportPath, err := report.WriteFile(cfg.OutputPath, report.Format(cfg.OutputFormat), written, toolVersion)
	if err != nil {
		return err
	}

	if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).Write(scanReport); err != nil {
		return err
	}
	fmt.Fprintf(out, "Report written to %s\n", reportPath)
	if p := scanLog.Path(); p != "" {
		fmt.Fprintf(out, "Scan log written to %s\n", p)
	}

	if cfg.SaveHistory {
		if err := saveRun(ctx, cfg.DBDir, scanReport, logger); err != nil {
			// The report is already on disk; a history failure is not fatal.
			logger.Error("failed to save scan history", "error", err)
		}
	}

	return nil
}

// newFetcher builds the fetcher for cfg. GET fetchers get a deduplicator
// tuned by the threshold and sample cap.
func newFetcher(client *http.Client, cfg *config.Config, lines fetcher.LineLogger) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithHeaders(cfg.Headers),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithLineLogger(lines),
	}
	if cfg.Method == http.MethodGet {
		opts = append(opts, fetcher.WithDeduplicator(dedup.New(
			dedup.WithThreshold(cfg.Threshold),
			dedup.WithMaxSamples(cfg.MaxSamples),
		)))
	}
	return fetcher.New(client, cfg.BaseURL, cfg.Method, opts...)
}

// newHTTPClient returns the HTTP client for the configured transport and a
// cleanup function that must be called when the scan is done.
func newHTTPClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*http.Client, func(), error) {
	noop := func() {}

	switch {
	case cfg.UseTor:
		client, embeddedTor, err := startEmbeddedTor(ctx, cfg, logger, out)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		return client.HTTPClient(), cleanup, nil

	case cfg.Proxy != "":
		client, err := tor.NewClient(cfg.Proxy, cfg.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create proxy client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, noop, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.Proxy)
		}
		logger.Info("proxy connection verified", "address", cfg.Proxy)
		return client.HTTPClient(), noop, nil

	default:
		return fetcher.NewHTTPClient(cfg.Timeout), noop, nil
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
// Returns the proxy client and embedded Tor manager on success.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*tor.Client, *tor.EmbeddedTor, error) {
	fmt.Fprintln(out, "Starting embedded Tor daemon...")
	fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	if err := embeddedTor.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", embeddedTor.SocksAddr(),
		"controlAddr", embeddedTor.ControlAddr(),
	)
	fmt.Fprintf(out, "SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(cfg.Timeout)
	if err != nil {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	return client, embeddedTor, nil
}

// saveRun records the run in the history database under dbDir.
func saveRun(ctx context.Context, dbDir string, scanReport *model.ScanReport, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The scan is complete at this point; an interrupt arriving now should
	// not discard the record.
	if err := db.SaveRun(context.WithoutCancel(ctx), scanReport); err != nil {
		return err
	}

	logger.Info("scan saved to history", "runID", scanReport.RunID, "db", db.Path())
	return nil
}
