package awardwatch

import (
	"fmt"
	"strings"

	"awardwatch-backend/lib/tabular"
)

// detailColumns is the fixed subset of columns worth surfacing on a
// new-entry line, in display order. Missing or blank columns are
// simply left off.
var detailColumns = []string{
	"Action Date",
	"Amount",
	"Action Type",
	"Transaction Description",
}

// FormatChangeLines renders a diff into the one-line-per-change form
// the digest email carries. New entries come first, then updates, both
// in the diff's own order. An updated entry whose columns all
// canonicalize equal (the diff's raw-inequality check can overreport)
// produces no line at all.
func FormatChangeLines(headers []string, result tabular.DiffResult, keyCol string, amountCols []string) []string {
	var lines []string

	for _, row := range result.NewEntries {
		parts := []string{newEntryLabel(row, keyCol)}
		for _, col := range detailColumns {
			if v := row.Get(col); v != "" {
				parts = append(parts, fmt.Sprintf("%s: %s", col, v))
			}
		}
		lines = append(lines, " - "+strings.Join(parts, " | "))
	}

	for _, update := range result.Updated {
		changed := tabular.ChangedColumns(headers, update.Old, update.New, amountCols)
		if len(changed) == 0 {
			continue
		}

		details := make([]string, len(changed))
		for i, col := range changed {
			details[i] = fmt.Sprintf("%s: %s → %s", col, update.Old.Get(col), update.New.Get(col))
		}

		label := update.New.Get(keyCol)
		if label == "" {
			label = update.Key
		}
		lines = append(lines, fmt.Sprintf(" - Updated (Mod #%s): %s", label, strings.Join(details, "; ")))
	}

	return lines
}

func newEntryLabel(row tabular.Row, keyCol string) string {
	if mod := row.Get(keyCol); mod != "" {
		return fmt.Sprintf("New entry (Mod #%s)", mod)
	}
	return "New entry"
}
