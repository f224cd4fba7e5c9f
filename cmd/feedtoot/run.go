package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/feedtoot/internal/config"
	"github.com/gauthierbraillon/feedtoot/internal/display"
	"github.com/gauthierbraillon/feedtoot/internal/eligibility"
	"github.com/gauthierbraillon/feedtoot/internal/engine"
	"github.com/gauthierbraillon/feedtoot/internal/feed"
	"github.com/gauthierbraillon/feedtoot/internal/ledger"
	"github.com/gauthierbraillon/feedtoot/internal/mastodon"
	"github.com/gauthierbraillon/feedtoot/internal/metrics"
	"github.com/gauthierbraillon/feedtoot/internal/publisher"
	"github.com/gauthierbraillon/feedtoot/pkg/oauth"
)

const metricsJob = "feedtoot"

type runOptions struct {
	dryRun bool
	limit  int
}

// newRunCmd creates the run subcommand.
func newRunCmd(log *slog.Logger) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post today's feed entries that have not been posted yet",
		Long: "Fetch the feed, and for each entry not yet recorded in the ledger and published\n" +
			"on today's month and day, post it to Mastodon and record it.\n\n" +
			"Entries that fail individually are reported but do not fail the run.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runFeed(cmd, cfg, log, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log what would be posted without posting or recording")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "Only consider the first N feed entries (0 means all)")

	return cmd
}

// runFeed processes the feed once. Configuration, authentication, ledger and
// fetch failures are returned; per-entry failures are only reported.
func runFeed(cmd *cobra.Command, cfg *config.Config, log *slog.Logger, opts runOptions) error {
	ctx := cmd.Context()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	l, err := ledger.Open(ctx, cfg.LedgerOptions())
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer l.Close()

	var pub publisher.Publisher
	var overlay *ledger.Overlay
	if opts.dryRun {
		overlay = ledger.NewOverlay(l)
		l = overlay
		pub = publisher.NewDryRun(log)
	} else {
		pub, err = mastodonPublisher(ctx, cfg, httpClient, log)
		if err != nil {
			return err
		}
	}

	m := metrics.New()
	src := feed.NewClient(cfg.FeedURL,
		feed.WithHTTPClient(httpClient),
		feed.WithLogger(log),
		feed.WithLimit(opts.limit),
	)
	eng := engine.New(l, eligibility.NewEvaluator(cfg.Timezone), pub,
		engine.WithLogger(log),
		engine.WithRecorder(m),
	)

	report, err := eng.RunSource(ctx, src)
	if err != nil {
		return err
	}
	m.MarkRunComplete(report.FinishedAt)
	if overlay != nil {
		log.Info("dry run left the ledger untouched", "would_record", overlay.Pending())
	}

	fmt.Fprint(cmd.OutOrStdout(), display.NewReportFormatter().FormatReport(report))

	if cfg.PushgatewayURL != "" && !opts.dryRun {
		if err := m.Push(ctx, cfg.PushgatewayURL, metricsJob); err != nil {
			log.Warn("metrics push failed", "error", err)
		}
	}
	return nil
}

// mastodonPublisher logs in (reusing cached credentials when possible) and
// returns a publisher posting as the configured account.
func mastodonPublisher(ctx context.Context, cfg *config.Config, httpClient *http.Client, log *slog.Logger) (publisher.Publisher, error) {
	auth := mastodon.NewAuthenticator(authConfig(cfg), oauth.NewCredentialStore(cfg.ConfigDir), httpClient, log)

	client, err := auth.Login(ctx, cfg.AccountEmail, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	poster := publisher.PosterFunc(func(ctx context.Context, text, idempotencyKey string) error {
		_, err := client.PostStatus(ctx, text, idempotencyKey)
		return err
	})
	return publisher.NewMastodon(poster, log), nil
}

func authConfig(cfg *config.Config) mastodon.AuthConfig {
	return mastodon.AuthConfig{
		InstanceURL:  cfg.InstanceURL,
		TokenBaseURL: cfg.BaseAPIURL,
		AppName:      cfg.AppName,
	}
}
