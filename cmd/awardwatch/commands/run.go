package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"awardwatch-backend/lib/scrapers/usaspending"
	"awardwatch-backend/lib/serviceutil"
	"awardwatch-backend/lib/sqliteutil"
	"awardwatch-backend/lib/telemetry"
	"awardwatch-backend/services/awardwatch"
	"awardwatch-backend/services/awardwatch/db"
	"awardwatch-backend/services/awardwatch/mailer"
	"awardwatch-backend/services/awardwatch/snapshot"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var dryRun *bool

func init() {
	dryRun = runCmd.Flags().Bool("dry-run", false, "compute and log the digest without sending email")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--dry-run]",
	Short: "Fetches every tracked award, diffs against the stored snapshots and emails a digest of changes.",
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfig()

		ctx := cmd.Context()
		t, err := telemetry.SetupFromEnv(ctx, "awardwatch")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		if err == nil {
			defer t.Shutdown(context.Background())
			telemetry.InstrumentPerfStats(ctx)
		}

		service := buildService(config, *dryRun || config.DryRun)

		summary := service.Run(ctx)
		renderSummary(summary)
	},
}

func buildService(config Config, dryRun bool) awardwatch.Service {
	store, err := snapshot.NewStore(config.StateDir)
	if err != nil {
		serviceutil.Fatal("failed to create state dir", err)
	}

	ledger, err := sqliteutil.OpenDB(db.Schema, config.LedgerDb)
	if err != nil {
		serviceutil.Fatal("failed to open run ledger", err)
	}

	var source awardwatch.Source
	if config.Source == "page" {
		source = usaspending.NewPageClient()
	} else {
		retry := usaspending.DefaultRetryPolicy()
		if config.RetryAttempts > 0 {
			retry.Attempts = config.RetryAttempts
		}
		source = usaspending.NewClient(usaspending.ClientOptions{
			BaseUrl:        config.ApiBaseUrl,
			Retry:          retry,
			RateLimit:      config.RateLimit,
			DiagnosticsDir: config.StateDir,
		})
	}

	return awardwatch.NewService(
		source,
		store,
		mailer.NewMailer(config.Mail),
		ledger,
		awardwatch.Options{
			Entities: config.Awards,
			DryRun:   dryRun,
		},
	)
}

func renderSummary(summary awardwatch.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Entity", "New", "Updated", "Status"})

	for _, outcome := range summary.Outcomes {
		status := "ok"
		switch {
		case outcome.Skipped:
			status = fmt.Sprintf("skipped: %v", outcome.Err)
		case outcome.Initialized:
			status = "initialized"
		}
		t.AppendRow(table.Row{outcome.Entity, outcome.New, outcome.Updated, status})
	}
	t.AppendFooter(table.Row{
		"",
		"",
		"",
		fmt.Sprintf("notified=%v dry_run=%v took=%s",
			summary.Notified,
			summary.DryRun,
			summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
		),
	})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
