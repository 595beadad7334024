package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "github.com/sec-toolkit/dirscan-toolkit/internal/log"
)

// errInvalidLogFormat is returned when --log-format is neither text nor json.
var errInvalidLogFormat = errors.New("invalid log format: must be text or json")

// NewRootCmd creates the root command for dirscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirscan",
		Short: "Word-list based HTTP directory scanner",
		Long: `dirscan discovers reachable HTTP resources on a target by issuing one
request per candidate path from a word list.

Requests are bounded by a maximum number in flight (--threads) and a maximum
rate (--rate). With GET probes, responses whose body matches or closely
resembles one already seen are flagged as duplicates.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Diagnostic log format (text, json)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger builds the diagnostic logger selected by --log-format.
func newLogger(cmd *cobra.Command, w io.Writer) (*slog.Logger, error) {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			return nil, err
		}
	}
	verbose := getVerboseFlag(cmd)
	switch format {
	case "text":
		return applog.NewSecureLogger(w, verbose), nil
	case "json":
		return applog.NewSecureJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("%w: %q", errInvalidLogFormat, format)
	}
}
