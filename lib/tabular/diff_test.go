package tabular

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var (
	keyCols    = []string{"Modification Number"}
	amountCols = []string{"Amount"}
)

func TestDiffBootstrap(t *testing.T) {
	newRows := []Row{
		{"Modification Number": "1", "Amount": "$100.00"},
		{"Modification Number": "2", "Amount": "$50.00"},
	}
	result := Diff(nil, newRows, keyCols, amountCols)
	require.Empty(t, result.Updated)
	if diff := cmp.Diff(newRows, result.NewEntries); diff != "" {
		t.Fatal(diff)
	}
}

func TestDiffNoopOnIdenticalInput(t *testing.T) {
	rows := []Row{
		{"Modification Number": "1", "Amount": "$100.00", "Action Type": "X"},
		{"Modification Number": "2", "Amount": "$50.00", "Action Type": "Y"},
	}
	result := Diff(rows, rows, keyCols, amountCols)
	require.True(t, result.Empty())
}

func TestDiffDeletionInvisible(t *testing.T) {
	old := []Row{
		{"Modification Number": "1", "Amount": "100"},
		{"Modification Number": "2", "Amount": "200"},
	}
	result := Diff(old, old[:1], keyCols, amountCols)
	require.True(t, result.Empty())
}

func TestDiffUpdateColumnIsolation(t *testing.T) {
	old := []Row{{
		"Modification Number": "1",
		"Amount":              "$100.00",
		"Action Type":         "X",
	}}
	updated := []Row{{
		"Modification Number": "1",
		"Amount":              "100.00",
		"Action Type":         "Y",
	}}

	result := Diff(old, updated, keyCols, amountCols)
	require.Empty(t, result.NewEntries)
	require.Len(t, result.Updated, 1)
	require.Equal(t, old[0], result.Updated[0].Old)
	require.Equal(t, updated[0], result.Updated[0].New)

	headers := []string{"Modification Number", "Amount", "Action Type"}
	changed := ChangedColumns(headers, result.Updated[0].Old, result.Updated[0].New, amountCols)
	require.Equal(t, []string{"Action Type"}, changed)
}

func TestDiffEquivalentFormattingIsNotAChange(t *testing.T) {
	old := []Row{{"Modification Number": "1", "Amount": "$1,234.50"}}
	reformatted := []Row{{"Modification Number": " 1", "Amount": "1234.50"}}
	result := Diff(old, reformatted, keyCols, amountCols)
	require.True(t, result.Empty())
}

func TestDiffOrderFollowsNewSequence(t *testing.T) {
	old := []Row{{"Modification Number": "1", "Amount": "1"}}
	newRows := []Row{
		{"Modification Number": "3", "Amount": "3"},
		{"Modification Number": "1", "Amount": "999"},
		{"Modification Number": "2", "Amount": "2"},
	}
	result := Diff(old, newRows, keyCols, amountCols)
	require.Len(t, result.NewEntries, 2)
	require.Equal(t, "3", result.NewEntries[0].Get("Modification Number"))
	require.Equal(t, "2", result.NewEntries[1].Get("Modification Number"))
	require.Len(t, result.Updated, 1)
}

func TestDiffDuplicateKeyLastWriteWins(t *testing.T) {
	old := []Row{{"Modification Number": "1", "Amount": "100"}}
	newRows := []Row{
		{"Modification Number": "1", "Amount": "100"},
		{"Modification Number": "1", "Amount": "250"},
	}
	result := Diff(old, newRows, keyCols, amountCols)
	require.Empty(t, result.NewEntries)
	require.Len(t, result.Updated, 1)
	require.Equal(t, "250", result.Updated[0].New.Get("Amount"))
}

func TestDiffEmptyKeyRowsCollapse(t *testing.T) {
	// two structurally identical rows with blank key columns share an
	// identity; only genuinely different content stays distinct
	newRows := []Row{
		{"Modification Number": "", "Amount": "5"},
		{"Modification Number": "", "Amount": "5"},
		{"Modification Number": "", "Amount": "7"},
	}
	result := Diff(nil, newRows, keyCols, amountCols)
	require.Len(t, result.NewEntries, 2)
}
