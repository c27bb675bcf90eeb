// Package fetcher retrieves published spreadsheet exports over HTTP or FTP
// and decodes them (CSV, XLSX, Google Sheets values JSON) into rows of cells.
package fetcher

import "strings"

// ParseCSV splits delimited text into rows of raw string cells.
//
// It is a single forward pass that tracks only whether the scanner is inside
// a quoted cell. Quoted cells may contain commas, newlines and doubled quotes
// ("" becomes "). CR is dropped outside quotes. The final cell and row are
// emitted even without a trailing newline, and a last row made only of empty
// cells is discarded. Malformed quoting never fails: an unmatched quote keeps
// the scanner in quoted mode until end of input.
func ParseCSV(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	endCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}
	endRow := func() {
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cell.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
				continue
			}
			cell.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			endCell()
		case '\n':
			endCell()
			endRow()
		case '\r':
		default:
			cell.WriteByte(ch)
		}
	}
	endCell()
	endRow()

	if last := rows[len(rows)-1]; allEmpty(last) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
