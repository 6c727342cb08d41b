package commands

import (
	"fmt"
	"os"
	"time"

	"awardwatch-backend/lib/serviceutil"
	"awardwatch-backend/lib/sqliteutil"
	"awardwatch-backend/services/awardwatch/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int64

func init() {
	historyLimit = historyCmd.Flags().Int64("limit", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Prints the outcome of recent runs from the run ledger.",
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfig()

		ledger, err := sqliteutil.OpenDB(db.Schema, config.LedgerDb)
		if err != nil {
			serviceutil.Fatal("failed to open run ledger", err)
		}
		defer ledger.Close()

		ctx := cmd.Context()
		qry := db.New(ledger)

		runs, err := qry.GetRecentRuns(ctx, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to read run ledger", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Run", "Started", "Entity", "New", "Updated", "Status"})

		for _, run := range runs {
			entities, err := qry.GetRunEntities(ctx, run.ID)
			if err != nil {
				serviceutil.Fatal("failed to read run entities", err)
			}
			started := time.Unix(run.Startedat, 0).Format(time.RFC3339)
			for _, e := range entities {
				status := "ok"
				switch {
				case e.Skipped:
					status = fmt.Sprintf("skipped: %s", e.Error)
				case e.Initialized:
					status = "initialized"
				}
				t.AppendRow(table.Row{run.ID, started, e.Entity, e.Newcount, e.Updatedcount, status})
			}
			if run.Dryrun {
				t.AppendRow(table.Row{run.ID, started, "(dry run)", "", "", ""})
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
