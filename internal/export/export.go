// Package export serializes listings back to delimited text for download.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shopmap/internal/model"
	"github.com/sells-group/shopmap/internal/offline"
)

// Header is the column row of an export, one column per canonical field.
var Header = []string{
	"Name", "Latitude", "Longitude", "Rating", "Address",
	"Category", "Phone", "ImageURL", "Description",
}

// Write exports raw verbatim when it is non-empty, so a download matches the
// published source byte for byte. Otherwise the listings are serialized.
func Write(w io.Writer, raw string, listings []model.Listing) error {
	if raw != "" {
		_, err := io.WriteString(w, raw)
		return eris.Wrap(err, "export: write raw payload")
	}
	return WriteListings(w, listings)
}

// WriteListings serializes listings under Header. Rows are separated by
// "\n" with no trailing newline.
func WriteListings(w io.Writer, listings []model.Listing) error {
	var b strings.Builder
	writeRow(&b, Header)
	for _, l := range listings {
		b.WriteByte('\n')
		writeRow(&b, []string{
			l.Name,
			formatFloat(l.Latitude),
			formatFloat(l.Longitude),
			strconv.Itoa(l.Rating),
			l.Address,
			l.Category,
			l.Phone,
			l.ImageURL,
			l.Description,
		})
	}
	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "export: write listings")
}

// RawPayload returns the cached payload when it can be exported verbatim.
// Only delimited-text payloads qualify.
func RawPayload(e *offline.Entry) string {
	if e == nil {
		return ""
	}
	if e.Format != "" && e.Format != "csv" {
		return ""
	}
	return e.Payload
}

// Quote wraps v in double quotes, doubling inner quotes, when it contains a
// comma, a quote or a newline.
func Quote(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func writeRow(b *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Quote(c))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
