// Package log provides the two logging sinks used by dirscan.
//
//   - SecureHandler wraps an slog.Handler and masks sensitive attribute values
//     (request headers such as Authorization or Cookie, tokens, keys) before
//     they reach the output. It backs the diagnostic logger.
//   - ScanLogger records one line per probe outcome. Every line is timestamped
//     and appended to a per-run log file, and echoed to the console.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	scanLog, err := log.NewScanLogger("logs", os.Stdout)
//	if err != nil {
//	    return err
//	}
//	defer scanLog.Close()
//	scanLog.Info("200 http://example.com/admin")
package log
