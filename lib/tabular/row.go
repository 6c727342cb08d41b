package tabular

// Row is one record of a scraped table, column name -> cell text.
// Reading a column that does not exist yields "", the same as a
// present-but-blank cell; writers should never store a meaningful
// distinction between the two.
type Row map[string]string

// Get returns the cell for col, or "" when the column is absent.
func (r Row) Get(col string) string {
	if r == nil {
		return ""
	}
	return r[col]
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal reports field-for-field equality regardless of insertion order.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		if other[k] != v {
			return false
		}
	}
	return true
}

// FromCells zips a header list with a cell list into a Row. Rows
// shorter than the header set are padded with "", longer ones are
// truncated, so header drift between runs never rejects data.
func FromCells(headers []string, cells []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
