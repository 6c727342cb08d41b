package awardwatch

import (
	"testing"

	"awardwatch-backend/lib/tabular"

	"github.com/stretchr/testify/require"
)

var digestHeaders = []string{
	"Modification Number",
	"Action Date",
	"Amount",
	"Action Type",
	"Transaction Description",
}

func TestFormatNewEntryLine(t *testing.T) {
	result := tabular.DiffResult{
		NewEntries: []tabular.Row{{
			"Modification Number": "2",
			"Action Date":         "06/02/2023",
			"Amount":              "$50.00",
			"Action Type":         "",
		}},
	}
	lines := FormatChangeLines(digestHeaders, result, "Modification Number", []string{"Amount"})
	require.Equal(t, []string{
		" - New entry (Mod #2) | Action Date: 06/02/2023 | Amount: $50.00",
	}, lines)
}

func TestFormatNewEntryWithoutKey(t *testing.T) {
	result := tabular.DiffResult{
		NewEntries: []tabular.Row{{"Amount": "$10.00"}},
	}
	lines := FormatChangeLines(digestHeaders, result, "Modification Number", []string{"Amount"})
	require.Equal(t, []string{" - New entry | Amount: $10.00"}, lines)
}

func TestFormatUpdatedLineListsOnlyChangedColumns(t *testing.T) {
	result := tabular.DiffResult{
		Updated: []tabular.Update{{
			Key: "1",
			Old: tabular.Row{
				"Modification Number": "1",
				"Amount":              "$100.00",
				"Action Type":         "X",
			},
			New: tabular.Row{
				"Modification Number": "1",
				"Amount":              "100.00",
				"Action Type":         "Y",
			},
		}},
	}
	lines := FormatChangeLines(digestHeaders, result, "Modification Number", []string{"Amount"})
	require.Equal(t, []string{" - Updated (Mod #1): Action Type: X → Y"}, lines)
}

func TestFormatUpdatedDisplaysOriginalValues(t *testing.T) {
	result := tabular.DiffResult{
		Updated: []tabular.Update{{
			Key: "1",
			Old: tabular.Row{"Modification Number": "1", "Amount": "$100.00"},
			New: tabular.Row{"Modification Number": "1", "Amount": "$250.00"},
		}},
	}
	lines := FormatChangeLines(digestHeaders, result, "Modification Number", []string{"Amount"})
	require.Equal(t, []string{" - Updated (Mod #1): Amount: $100.00 → $250.00"}, lines)
}

func TestFormatOmitsUpdatesThatCanonicalizeEqual(t *testing.T) {
	// raw text differs but every column canonicalizes equal, so the
	// entry is dropped entirely
	result := tabular.DiffResult{
		Updated: []tabular.Update{{
			Key: "1",
			Old: tabular.Row{"Modification Number": "1", "Amount": "$100.00"},
			New: tabular.Row{"Modification Number": " 1 ", "Amount": "100.00"},
		}},
	}
	lines := FormatChangeLines(digestHeaders, result, "Modification Number", []string{"Amount"})
	require.Empty(t, lines)
}

func TestFormatOrderNewThenUpdated(t *testing.T) {
	result := tabular.DiffResult{
		NewEntries: []tabular.Row{{"Modification Number": "3"}},
		Updated: []tabular.Update{{
			Key: "1",
			Old: tabular.Row{"Modification Number": "1", "Action Type": "X"},
			New: tabular.Row{"Modification Number": "1", "Action Type": "Y"},
		}},
	}
	lines := FormatChangeLines(digestHeaders, result, "Modification Number", []string{"Amount"})
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "New entry")
	require.Contains(t, lines[1], "Updated")
}
