// Package main provides the feedtoot CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/feedtoot/internal/config"
	"github.com/gauthierbraillon/feedtoot/internal/ledger"
	"github.com/gauthierbraillon/feedtoot/internal/logger"
)

func main() {
	// Real environment variables take precedence over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(logger.Init()).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for feedtoot CLI.
func newRootCmd(log *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "feedtoot",
		Short:   "Post today's RSS entries to Mastodon",
		Long:    "Feedtoot reads an RSS/Atom feed and posts each entry published today to a Mastodon account, once.",
		Version: buildVersion(),
	}

	rootCmd.SetVersionTemplate("feedtoot version {{.Version}}\n")

	rootCmd.AddCommand(newRunCmd(log))
	rootCmd.AddCommand(newAuthCmd(log))
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// newCheckCmd creates the check subcommand.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Report whether an entry id is recorded as posted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			l, err := ledger.Open(cmd.Context(), cfg.LedgerOptions())
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer l.Close()

			posted, err := l.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if posted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: posted\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not posted\n", args[0])
			}
			return nil
		},
	}
}

// newConfigCmd creates the config subcommand.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show resolved configuration",
		Long:  "Print the configuration feedtoot would run with. Secrets are redacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			fmt.Fprintf(cmd.OutOrStdout(), "Config directory: %s\n", cfg.ConfigDir)
			return nil
		},
	}
}
