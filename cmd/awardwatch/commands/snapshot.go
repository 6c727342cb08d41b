package commands

import (
	"fmt"
	"os"

	"awardwatch-backend/lib/serviceutil"
	"awardwatch-backend/services/awardwatch/snapshot"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <entity>",
	Short: "Prints the stored snapshot for one tracked award.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfig()

		store, err := snapshot.NewStore(config.StateDir)
		if err != nil {
			serviceutil.Fatal("failed to open state dir", err)
		}

		headers, rows, err := store.Load(args[0])
		if err != nil {
			serviceutil.Fatal("failed to load snapshot", err)
		}
		if len(rows) == 0 {
			fmt.Printf("no snapshot stored for %s\n", args[0])
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		headerRow := make(table.Row, len(headers))
		for i, h := range headers {
			headerRow[i] = h
		}
		t.AppendHeader(headerRow)

		for _, row := range rows {
			record := make(table.Row, len(headers))
			for i, h := range headers {
				record[i] = row.Get(h)
			}
			t.AppendRow(record)
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
