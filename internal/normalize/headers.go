package normalize

// Absent marks a canonical field with no matching header.
const Absent = -1

// HeaderIndex maps each canonical field to its column, or Absent.
type HeaderIndex map[Field]int

// ResolveHeaders matches a header row against the alias table. For each
// field the aliases are tried in order and the first one present in the
// header row wins; when a header repeats, its first column is used.
func ResolveHeaders(header []string, aliases Aliases) HeaderIndex {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}

	idx := make(HeaderIndex, len(Fields))
	for _, field := range Fields {
		idx[field] = Absent
		for _, alias := range aliases[field] {
			if col, ok := columns[alias]; ok {
				idx[field] = col
				break
			}
		}
	}
	return idx
}

// Value returns the trimmed cell for field, or "" when the field is absent
// or the row is too short.
func (h HeaderIndex) Value(row []string, field Field) string {
	col, ok := h[field]
	if !ok || col < 0 || col >= len(row) {
		return ""
	}
	return trim(row[col])
}

// Missing lists the fields that resolved to no column.
func (h HeaderIndex) Missing() []Field {
	var out []Field
	for _, f := range Fields {
		if h[f] == Absent {
			out = append(out, f)
		}
	}
	return out
}
