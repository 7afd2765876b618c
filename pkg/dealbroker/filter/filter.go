// Package filter derives the visible subset of a listing collection from the
// make, price and tag facets. Everything here is pure and synchronous.
package filter

import (
	"math"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// MakeSelector is either "all makes" or one exact make. The zero value
// selects all makes.
type MakeSelector struct {
	make     string
	specific bool
}

// AllMakes matches every listing.
func AllMakes() MakeSelector {
	return MakeSelector{}
}

// SpecificMake matches listings whose make equals name exactly, including
// an empty name.
func SpecificMake(name string) MakeSelector {
	return MakeSelector{make: name, specific: true}
}

// ParseMakeSelector maps the legacy "all" sentinel and the empty string to
// AllMakes and anything else to SpecificMake.
func ParseMakeSelector(s string) MakeSelector {
	if s == "" || s == "all" {
		return AllMakes()
	}
	return SpecificMake(s)
}

// IsAll reports whether the selector matches every make.
func (m MakeSelector) IsAll() bool {
	return !m.specific
}

// Make returns the selected make and false for AllMakes.
func (m MakeSelector) Make() (string, bool) {
	return m.make, m.specific
}

func (m MakeSelector) String() string {
	if m.IsAll() {
		return "all"
	}
	return m.make
}

// Matches is case-sensitive.
func (m MakeSelector) Matches(l dal.Listing) bool {
	return m.IsAll() || l.Make == m.make
}

// PriceRange bounds lease_price, both ends inclusive.
type PriceRange struct {
	Low  float64
	High float64
}

// Unbounded covers [0, +Inf).
func Unbounded() PriceRange {
	return PriceRange{Low: 0, High: math.Inf(1)}
}

// Contains reports low <= price <= high.
func (r PriceRange) Contains(price float64) bool {
	return r.Low <= price && price <= r.High
}

// Widen returns the smallest range covering both r and o.
func (r PriceRange) Widen(o PriceRange) PriceRange {
	return PriceRange{Low: math.Min(r.Low, o.Low), High: math.Max(r.High, o.High)}
}

// State is the full filter selection.
type State struct {
	Make  MakeSelector
	Price PriceRange
	Tags  TagSet
}

// Default returns the reset state for the given facet domains: every make,
// the full observed price range and no tags.
func Default(f Facets) State {
	return State{
		Make:  AllMakes(),
		Price: f.PriceRange(),
		Tags:  NewTagSet(),
	}
}

// Open matches every listing with a non-negative price.
func Open() State {
	return State{Make: AllMakes(), Price: Unbounded(), Tags: NewTagSet()}
}

// WithMake returns a copy of s with the make selector replaced.
func (s State) WithMake(m MakeSelector) State {
	s.Make = m
	return s
}

// WithPrice returns a copy of s with the price range replaced.
func (s State) WithPrice(r PriceRange) State {
	s.Price = r
	return s
}

// WithTags returns a copy of s selecting exactly tags.
func (s State) WithTags(tags ...string) State {
	s.Tags = NewTagSet(tags...)
	return s
}

// Toggle adds tag when absent and removes it when present.
func (s State) Toggle(tag string) State {
	s.Tags = s.Tags.Toggle(tag)
	return s
}

// Matches applies all three facets to one listing.
func (s State) Matches(l dal.Listing) bool {
	if !s.Make.Matches(l) {
		return false
	}
	if !s.Price.Contains(l.LeasePrice) {
		return false
	}
	return s.Tags.MatchesAny(l.Tags)
}

// Apply returns the listings that pass every facet, in their input order.
// The result never aliases the input slice.
func Apply(listings []dal.Listing, s State) []dal.Listing {
	out := make([]dal.Listing, 0, len(listings))
	for _, l := range listings {
		if s.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
