package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/feedtoot/internal/config"
	"github.com/gauthierbraillon/feedtoot/internal/mastodon"
	"github.com/gauthierbraillon/feedtoot/pkg/browser"
	"github.com/gauthierbraillon/feedtoot/pkg/oauth"
)

// newAuthCmd creates the auth subcommand.
func newAuthCmd(log *slog.Logger) *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize feedtoot with your Mastodon account",
		Long: "Register the feedtoot app on the instance if needed, then run the OAuth\n" +
			"authorization-code flow. The instance shows a code after you approve;\n" +
			"paste it here. Credentials are cached in the config directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())
			store := oauth.NewCredentialStore(cfg.ConfigDir)
			auth := mastodon.NewAuthenticator(authConfig(cfg), store, &http.Client{Timeout: cfg.HTTPTimeout}, log)

			fmt.Fprintf(out, "Authenticating with %s...\n", cfg.InstanceURL)
			account, err := auth.Authorize(cmd.Context(), func(authURL string) (string, error) {
				if noBrowser {
					fmt.Fprintf(out, "Visit this URL to authorize:\n%s\n", authURL)
				} else {
					fmt.Fprintf(out, "Opening browser for authorization...\n")
					if err := browser.Open(authURL); err != nil {
						fmt.Fprintf(out, "Could not open browser. Please visit:\n%s\n", authURL)
					}
				}
				fmt.Fprint(out, "Authorization code: ")
				return readCode(in)
			})
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Fprintf(out, "Successfully authenticated as @%s!\n", account.Acct)
			fmt.Fprintf(out, "Credentials saved to: %s\n", cfg.ConfigDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")

	return cmd
}

func readCode(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	return strings.TrimSpace(line), nil
}
