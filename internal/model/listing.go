package model

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Listing is a single job-posting title.
type Listing string

func NormalizeListing(raw string) (Listing, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return Listing(trimmed), true
}

// ListingSet holds unique listings. Order and duplicate counts are ignored.
// The zero value is an empty set.
type ListingSet struct {
	items mapset.Set[Listing]
}

func NewListingSet(raw []string) ListingSet {
	items := mapset.NewThreadUnsafeSetWithSize[Listing](len(raw))
	for _, r := range raw {
		if l, ok := NormalizeListing(r); ok {
			items.Add(l)
		}
	}
	return ListingSet{items: items}
}

func SetOf(listings ...Listing) ListingSet {
	return ListingSet{items: mapset.NewThreadUnsafeSet(listings...)}
}

func (s ListingSet) set() mapset.Set[Listing] {
	if s.items == nil {
		return mapset.NewThreadUnsafeSet[Listing]()
	}
	return s.items
}

func (s ListingSet) Len() int {
	return s.set().Cardinality()
}

func (s ListingSet) Contains(l Listing) bool {
	return s.set().Contains(l)
}

func (s ListingSet) Equal(other ListingSet) bool {
	return s.set().Equal(other.set())
}

// Minus returns the listings present in s but absent from other.
func (s ListingSet) Minus(other ListingSet) ListingSet {
	return ListingSet{items: s.set().Difference(other.set())}
}

func (s ListingSet) Sorted() []Listing {
	out := s.set().ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s ListingSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, l := range sorted {
		out[i] = string(l)
	}
	return out
}
