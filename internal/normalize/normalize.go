package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/model"
)

// Stats summarizes one normalization pass.
type Stats struct {
	Rows    int `json:"rows"`    // data rows after the header
	Blank   int `json:"blank"`   // all-blank rows skipped
	Dropped int `json:"dropped"` // rows without finite coordinates
	Kept    int `json:"kept"`
}

// Normalizer turns decoded spreadsheet rows into listings.
type Normalizer struct {
	aliases Aliases
}

// New creates a Normalizer using the given alias table. A nil table means
// the built-in defaults.
func New(aliases Aliases) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Normalizer{aliases: aliases}
}

// Normalize maps rows with the built-in alias table.
func Normalize(rows [][]string) []model.Listing {
	out, _ := New(nil).Normalize(rows)
	return out
}

// Normalize treats rows[0] as the header row and maps every following row
// onto a listing. Blank rows are skipped and rows whose coordinates are not
// finite numbers are dropped. Malformed cells never fail the pass.
func (n *Normalizer) Normalize(rows [][]string) ([]model.Listing, Stats) {
	var stats Stats
	if len(rows) == 0 {
		return nil, stats
	}

	idx := ResolveHeaders(rows[0], n.aliases)
	if missing := idx.Missing(); len(missing) > 0 {
		zap.L().Debug("normalize: unmatched fields", zap.Any("fields", missing))
	}

	out := make([]model.Listing, 0, len(rows)-1)
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		stats.Rows++
		if isBlank(row) {
			stats.Blank++
			continue
		}

		l, ok := mapRow(idx, row, r)
		if !ok {
			stats.Dropped++
			zap.L().Debug("normalize: dropping row without coordinates", zap.Int("row", r))
			continue
		}
		out = append(out, l)
	}
	stats.Kept = len(out)
	return out, stats
}

func mapRow(idx HeaderIndex, row []string, position int) (model.Listing, bool) {
	lat := parseCoordinate(idx.Value(row, FieldLatitude))
	lng := parseCoordinate(idx.Value(row, FieldLongitude))
	if !isFinite(lat) || !isFinite(lng) {
		return model.Listing{}, false
	}

	name := idx.Value(row, FieldName)
	if name == "" {
		name = "Shop " + strconv.Itoa(position)
	}

	raw := make([]string, len(row))
	copy(raw, row)

	return model.Listing{
		Name:        name,
		Latitude:    lat,
		Longitude:   lng,
		Rating:      ParseRating(idx.Value(row, FieldRating)),
		Address:     idx.Value(row, FieldAddress),
		Category:    idx.Value(row, FieldCategory),
		Phone:       idx.Value(row, FieldPhone),
		ImageURL:    idx.Value(row, FieldImage),
		Description: idx.Value(row, FieldDescription),
		Raw:         raw,
	}, true
}

// ParseRating keeps only digits and dots, parses the leading number of the
// remainder and returns its whole-star bucket. Anything unparseable is 0.
func ParseRating(s string) int {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	f, ok := leadingFloat(cleaned)
	if !ok {
		return model.MinRating
	}
	return model.Bucket(f)
}

// parseCoordinate reads the leading number of s, so cells such as
// "16.8661°" or "96.1951 E" keep their value. No number yields NaN.
func parseCoordinate(s string) float64 {
	f, ok := leadingFloat(s)
	if !ok {
		return math.NaN()
	}
	return f
}

// leadingFloat parses the longest decimal prefix of s: optional sign,
// digits with at most one dot, and an optional exponent. Leading whitespace
// is skipped. Inf, NaN and hex spellings are not numbers here; "0x1f" reads
// as 0. ok is false when no digits precede the first other character.
func leadingFloat(s string) (f float64, ok bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}

	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out-of-range values are ±Inf or 0; callers check finiteness.
	return f, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if trim(c) != "" {
			return false
		}
	}
	return true
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
