package filter

import (
	"sort"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// PriceMargin is added to the most expensive listing so the top of the price
// control sits at a round value above it.
const PriceMargin = 100

// PriceStep is the granularity of the price range control.
const PriceStep = 50

// Facets are the option domains derived from a loaded collection.
type Facets struct {
	Makes       []string
	Tags        []string
	ObservedMax float64
	MaxPrice    float64
}

// ExtractFacets collects the distinct makes and tags (both sorted) and the
// price ceiling of listings.
func ExtractFacets(listings []dal.Listing) Facets {
	makes := make(map[string]struct{})
	tags := make(map[string]struct{})
	var highest float64
	for i, l := range listings {
		makes[l.Make] = struct{}{}
		for _, t := range l.Tags {
			tags[t] = struct{}{}
		}
		if i == 0 || l.LeasePrice > highest {
			highest = l.LeasePrice
		}
	}
	return Facets{
		Makes:       sortedKeys(makes),
		Tags:        sortedKeys(tags),
		ObservedMax: highest,
		MaxPrice:    highest + PriceMargin,
	}
}

// PriceRange is the full range of the price control, [0, MaxPrice].
func (f Facets) PriceRange() PriceRange {
	return PriceRange{Low: 0, High: f.MaxPrice}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
