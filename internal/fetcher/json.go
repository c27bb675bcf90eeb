package fetcher

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// DecodeJSONObject decodes a single JSON object from a reader.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}

// sheetValues is the body returned by the Google Sheets values endpoint.
type sheetValues struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// DecodeSheetValues converts a Google Sheets "values" response into rows of
// string cells. Non-string cells (numbers, booleans) are rendered with their
// JSON text. A response without values yields no rows.
func DecodeSheetValues(text string) ([][]string, error) {
	body, err := DecodeJSONObject[sheetValues](strings.NewReader(text))
	if err != nil {
		return nil, eris.Wrap(err, "sheets: decode values")
	}

	rows := make([][]string, 0, len(body.Values))
	for _, raw := range body.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = cellText(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
