// Package listing holds the canonical listing collection and derives the
// filtered and grouped views shown to users.
package listing

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/shopmap/internal/model"
)

// Store holds the listings of the latest ingestion cycle, ordered by name
// under the configured locale. It has a single writer and is not safe for
// concurrent use.
type Store struct {
	listings []model.Listing
	byKey    map[string]int
	collator *collate.Collator
}

// NewStore creates an empty store that sorts names using locale's collation.
func NewStore(locale language.Tag) *Store {
	return &Store{
		byKey:    make(map[string]int),
		collator: collate.New(locale, collate.IgnoreCase),
	}
}

// ParseLocale parses a BCP 47 tag, falling back to English.
func ParseLocale(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

// SetAll replaces the store contents and re-sorts them by name.
func (s *Store) SetAll(listings []model.Listing) {
	next := make([]model.Listing, len(listings))
	copy(next, listings)
	sort.SliceStable(next, func(i, j int) bool {
		return s.collator.CompareString(next[i].Name, next[j].Name) < 0
	})

	byKey := make(map[string]int, len(next))
	for i, l := range next {
		k := l.Key()
		if _, dup := byKey[k]; !dup {
			byKey[k] = i
		}
	}

	s.listings = next
	s.byKey = byKey
}

// All returns a copy of every listing in store order.
func (s *Store) All() []model.Listing {
	out := make([]model.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// Len returns the number of listings.
func (s *Store) Len() int {
	return len(s.listings)
}

// Find returns the listing with the given key.
func (s *Store) Find(key string) (model.Listing, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return model.Listing{}, false
	}
	return s.listings[i], true
}

// ApplyFilter returns the listings that satisfy every predicate of c, in
// store order. The store itself is not modified. A nil c.RatingGroups admits
// every bucket.
func (s *Store) ApplyFilter(c model.FilterCriteria) []model.Listing {
	m := newMatcher(c)
	out := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if m.match(l) {
			out = append(out, l)
		}
	}
	return out
}

// ApplyGroups returns the listings whose rating bucket is in groups. An
// empty set yields no listings.
func (s *Store) ApplyGroups(groups model.GroupSet) []model.Listing {
	out := make([]model.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if groups.Has(l.Bucket()) {
			out = append(out, l)
		}
	}
	return out
}
