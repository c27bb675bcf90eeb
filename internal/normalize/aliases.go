// Package normalize maps loosely structured spreadsheet rows onto canonical
// listing records.
package normalize

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Field is a canonical listing attribute that spreadsheet headers resolve to.
type Field string

// Canonical fields.
const (
	FieldName        Field = "name"
	FieldLatitude    Field = "latitude"
	FieldLongitude   Field = "longitude"
	FieldRating      Field = "rating"
	FieldAddress     Field = "address"
	FieldCategory    Field = "category"
	FieldPhone       Field = "phone"
	FieldImage       Field = "image"
	FieldDescription Field = "description"
)

// Fields lists every canonical field in export column order.
var Fields = []Field{
	FieldName, FieldLatitude, FieldLongitude, FieldRating, FieldAddress,
	FieldCategory, FieldPhone, FieldImage, FieldDescription,
}

//go:embed default_aliases.yaml
var defaultAliasesYAML []byte

// Aliases holds, per canonical field, the accepted header spellings in
// priority order.
type Aliases map[Field][]string

type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// DefaultAliases returns the built-in alias table.
func DefaultAliases() Aliases {
	a, err := ParseAliases(defaultAliasesYAML)
	if err != nil {
		panic("normalize: embedded alias table: " + err.Error())
	}
	return a
}

// ParseAliases decodes an alias table. Unknown field names are rejected.
// Aliases are trimmed and lower-cased; blanks are ignored.
func ParseAliases(data []byte) (Aliases, error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "normalize: parse aliases")
	}

	out := make(Aliases, len(f.Aliases))
	for name, list := range f.Aliases {
		field := Field(strings.ToLower(strings.TrimSpace(name)))
		if !isField(field) {
			return nil, eris.Errorf("normalize: unknown field %q in alias table", name)
		}
		for _, a := range list {
			if a = normalizeHeader(a); a != "" {
				out[field] = append(out[field], a)
			}
		}
	}
	return out, nil
}

// LoadAliases reads an alias table from a YAML file. Fields the file omits
// keep their built-in aliases. An empty path returns the defaults.
func LoadAliases(path string) (Aliases, error) {
	defaults := DefaultAliases()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read aliases %s", path)
	}
	override, err := ParseAliases(data)
	if err != nil {
		return nil, err
	}
	for field, list := range override {
		defaults[field] = list
	}
	return defaults, nil
}

func isField(f Field) bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
