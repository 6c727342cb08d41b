package tabular

import (
	"encoding/json"
	"sort"
	"strings"
)

// keySeparator joins key-column values. Multi-character on purpose so
// it cannot appear in scraped cell text.
const keySeparator = "\x1f|\x1f"

// IdentityKey derives the string that matches a row across two runs.
// The row must already be canonicalized. Values of the key columns are
// joined in order; a row whose key columns are all empty falls back to
// a content signature of the entire row, so two empty-keyed rows only
// share an identity when every column matches.
func IdentityKey(row Row, keyCols []string) string {
	parts := make([]string, len(keyCols))
	empty := true
	for i, col := range keyCols {
		v := row.Get(col)
		if v != "" {
			empty = false
		}
		parts[i] = v
	}
	if !empty {
		return strings.Join(parts, keySeparator)
	}
	return contentSignature(row)
}

// contentSignature serializes the row sorted by column name, so the
// same content yields the same signature regardless of insertion order.
func contentSignature(row Row) string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(&b, k)
		b.WriteByte(':')
		writeJSONString(&b, row[k])
	}
	b.WriteByte('}')
	return b.String()
}

func writeJSONString(b *strings.Builder, s string) {
	enc, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		b.WriteString(`""`)
		return
	}
	b.Write(enc)
}
