package listing

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/shopmap/internal/model"
)

type matcher struct {
	minRating int
	groups    model.GroupSet
	needle    string
	fold      cases.Caser
}

func newMatcher(c model.FilterCriteria) *matcher {
	fold := cases.Fold()
	return &matcher{
		minRating: model.ClampRating(c.MinRating),
		groups:    c.RatingGroups,
		needle:    fold.String(strings.TrimSpace(c.SearchText)),
		fold:      fold,
	}
}

func (m *matcher) match(l model.Listing) bool {
	b := l.Bucket()
	if b < m.minRating {
		return false
	}
	if m.groups != nil && !m.groups.Has(b) {
		return false
	}
	return m.matchText(l)
}

func (m *matcher) matchText(l model.Listing) bool {
	if m.needle == "" {
		return true
	}
	for _, field := range []string{l.Name, l.Category, l.Address} {
		if strings.Contains(m.fold.String(field), m.needle) {
			return true
		}
	}
	return false
}

// Matches reports whether a single listing passes the criteria. A nil
// RatingGroups admits every bucket; an empty non-nil set admits none.
func Matches(l model.Listing, c model.FilterCriteria) bool {
	return newMatcher(c).match(l)
}
