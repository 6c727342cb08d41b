package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"awardwatch-backend/lib/tabular"
)

// Store persists one CSV per tracked entity under a state directory.
// The header row doubles as the column names for every stored row.
type Store struct {
	dir string
}

func NewStore(dir string) (Store, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return Store{}, fmt.Errorf("create state dir: %w", err)
	}
	return Store{dir: dir}, nil
}

func (s Store) Path(entity string) string {
	// entity names come from config, not user input, but keep them
	// from escaping the state dir anyway
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(entity)
	return filepath.Join(s.dir, name+".csv")
}

// Load returns the persisted row set for the entity, or (nil, nil,
// nil) when no snapshot exists yet or the file is empty. Both cases
// mean "first run" to the caller.
func (s Store) Load(entity string) ([]string, []tabular.Row, error) {
	f, err := os.Open(s.Path(entity))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot for %s: %w", entity, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := records[0]
	rows := make([]tabular.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, tabular.FromCells(headers, record))
	}
	return headers, rows, nil
}

// Save atomically replaces the entity's snapshot: the full file is
// written to a temp path in the same directory, fsynced, then renamed
// over the final location, so a concurrent reader or a crash can never
// observe a partial snapshot. Saving zero rows is a no-op; a transient
// empty fetch must not erase a good snapshot.
func (s Store) Save(entity string, headers []string, rows []tabular.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if len(headers) == 0 {
		return fmt.Errorf("refusing to save snapshot for %s without headers", entity)
	}

	final := s.Path(entity)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(final)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(headers); err != nil {
		tmp.Close()
		return err
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = row.Get(h)
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), final)
}
