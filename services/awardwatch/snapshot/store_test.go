package snapshot

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"awardwatch-backend/lib/tabular"

	"github.com/stretchr/testify/require"
)

var testHeaders = []string{"Modification Number", "Action Date", "Amount"}

func testRows() []tabular.Row {
	return []tabular.Row{
		{"Modification Number": "0", "Action Date": "01/15/2023", "Amount": "$100.00"},
		{"Modification Number": "1", "Action Date": "06/02/2023", "Amount": "($250.00)"},
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	headers, rows, err := store.Load("EBANGA")
	require.NoError(t, err)
	require.Nil(t, headers)
	require.Nil(t, rows)
}

func TestSaveThenLoadRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("EBANGA", testHeaders, testRows()))

	headers, rows, err := store.Load("EBANGA")
	require.NoError(t, err)
	require.Equal(t, testHeaders, headers)
	require.Len(t, rows, 2)
	require.True(t, rows[0].Equal(testRows()[0]))
	require.True(t, rows[1].Equal(testRows()[1]))
}

func TestSaveEmptyRowsIsNoop(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("EBANGA", testHeaders, testRows()))
	before, err := os.ReadFile(store.Path("EBANGA"))
	require.NoError(t, err)

	require.NoError(t, store.Save("EBANGA", testHeaders, nil))
	after, err := os.ReadFile(store.Path("EBANGA"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestSaveReplacesWholesale(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("X", testHeaders, testRows()))
	require.NoError(t, store.Save("X", testHeaders, testRows()[:1]))

	_, rows, err := store.Load("X")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("X", testHeaders, testRows()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.Contains(e.Name(), ".tmp"), "leftover temp file: %s", e.Name())
	}
}

func TestConcurrentReadersNeverSeePartialSnapshot(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	small := testRows()
	big := make([]tabular.Row, 7)
	for i := range big {
		big[i] = tabular.Row{
			"Modification Number": strconv.Itoa(i),
			"Action Date":         "01/15/2023",
			"Amount":              "$1.00",
		}
	}
	require.NoError(t, store.Save("X", testHeaders, small))

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 100; i++ {
			rows := small
			if i%2 == 0 {
				rows = big
			}
			if err := store.Save("X", testHeaders, rows); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	// every load races a rename-in-progress; a snapshot must always
	// come back whole, never as a prefix of either row set
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			return
		default:
		}
		headers, rows, err := store.Load("X")
		require.NoError(t, err)
		require.Equal(t, testHeaders, headers)
		require.Contains(t, []int{len(small), len(big)}, len(rows))
	}
}

func TestCrashMidWriteLeavesSnapshotIntact(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("X", testHeaders, testRows()))
	before, err := os.ReadFile(store.Path("X"))
	require.NoError(t, err)

	// a crash between the temp write and the rename leaves a partial
	// temp file behind; readers must keep seeing the old snapshot
	partial := []byte("Modification Number,Action Date,Amo")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.csv.tmp123"), partial, 0o644))

	headers, rows, err := store.Load("X")
	require.NoError(t, err)
	require.Equal(t, testHeaders, headers)
	require.Len(t, rows, 2)

	after, err := os.ReadFile(store.Path("X"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestLoadEmptyFileMeansFirstRun(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path("X"), nil, 0o644))
	headers, rows, err := store.Load("X")
	require.NoError(t, err)
	require.Nil(t, headers)
	require.Nil(t, rows)
}

func TestPathStaysInsideStateDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	p := store.Path("../escape")
	require.Equal(t, dir, filepath.Dir(p))
}
