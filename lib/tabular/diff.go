package tabular

// Update pairs the old and new form of a row that kept its identity
// but changed content between two runs.
type Update struct {
	Key string
	Old Row
	New Row
}

// DiffResult holds the outcome of comparing two snapshots of the same
// table. NewEntries and Updated carry rows in their original,
// non-canonicalized form, ordered by their position in the new row
// sequence. Rows present only in the old snapshot are intentionally
// not represented; removals are never reported.
type DiffResult struct {
	NewEntries []Row
	Updated    []Update
}

// Empty reports whether the diff found nothing to act on.
func (d DiffResult) Empty() bool {
	return len(d.NewEntries) == 0 && len(d.Updated) == 0
}

// Diff classifies newRows against oldRows under the identity defined
// by keyCols, canonicalizing both sides with amountCols first. It is
// pure: neither input is mutated and identical inputs always produce
// an identical (empty) result.
//
// When two rows within one sequence share an identity key the later
// row wins; the data source makes no uniqueness promise, so this is
// documented rather than rejected.
func Diff(oldRows, newRows []Row, keyCols, amountCols []string) DiffResult {
	oldByKey := make(map[string]Row, len(oldRows))
	for _, r := range oldRows {
		canon := Canonicalize(r, amountCols)
		oldByKey[IdentityKey(canon, keyCols)] = canon
	}

	type newEntry struct {
		raw   Row
		canon Row
	}
	newByKey := make(map[string]newEntry, len(newRows))
	keyOrder := make([]string, 0, len(newRows))
	for _, r := range newRows {
		canon := Canonicalize(r, amountCols)
		key := IdentityKey(canon, keyCols)
		if _, seen := newByKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		newByKey[key] = newEntry{raw: r, canon: canon}
	}

	var result DiffResult
	for _, key := range keyOrder {
		entry := newByKey[key]
		oldCanon, existed := oldByKey[key]
		if !existed {
			result.NewEntries = append(result.NewEntries, entry.raw)
			continue
		}
		if !entry.canon.Equal(oldCanon) {
			result.Updated = append(result.Updated, Update{
				Key: key,
				Old: rawOldRow(oldRows, oldCanon, keyCols, amountCols, key),
				New: entry.raw,
			})
		}
	}
	return result
}

// rawOldRow recovers the original form of the old row that produced
// the given key, preferring the last match to mirror the
// last-write-wins rule used when building the key map.
func rawOldRow(oldRows []Row, canon Row, keyCols, amountCols []string, key string) Row {
	for i := len(oldRows) - 1; i >= 0; i-- {
		c := Canonicalize(oldRows[i], amountCols)
		if IdentityKey(c, keyCols) == key {
			return oldRows[i]
		}
	}
	return canon
}

// ChangedColumns lists, in header order, the columns whose
// canonicalized values differ between the two rows. Formatting relies
// on this to display only real changes; a raw-text difference that
// canonicalizes equal (e.g. "$100" vs "100.00") is not a change.
func ChangedColumns(headers []string, oldRow, newRow Row, amountCols []string) []string {
	oldCanon := Canonicalize(oldRow, amountCols)
	newCanon := Canonicalize(newRow, amountCols)

	var changed []string
	for _, col := range headers {
		if oldCanon.Get(col) != newCanon.Get(col) {
			changed = append(changed, col)
		}
	}
	return changed
}
