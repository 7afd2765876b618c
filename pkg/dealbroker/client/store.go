package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/filter"
)

// EmptyReason explains an empty View.
type EmptyReason int

const (
	// NotEmpty means the view has listings.
	NotEmpty EmptyReason = iota
	// NotLoaded means no load has succeeded yet.
	NotLoaded
	// NoListings means the loaded collection itself is empty.
	NoListings
	// FilteredOut means listings exist but the filter excluded all of them.
	FilteredOut
)

func (r EmptyReason) String() string {
	switch r {
	case NotEmpty:
		return "not empty"
	case NotLoaded:
		return "not loaded"
	case NoListings:
		return "no listings"
	case FilteredOut:
		return "filtered out"
	}
	return fmt.Sprintf("EmptyReason(%d)", int(r))
}

// View is the filtered collection plus why it is empty, if it is.
type View struct {
	Listings []dal.Listing
	Empty    EmptyReason
	Loading  bool
}

// Store holds the in-memory collection of one listing kind. A load replaces
// the collection wholesale; a failed load keeps the previous one. When two
// loads overlap, the one that finishes last wins.
type Store struct {
	client *Client
	kind   dal.Kind

	mu       sync.RWMutex
	listings []dal.Listing
	facets   filter.Facets
	loaded   bool
	inFlight int
	err      error
}

// NewStore returns an empty store for kind.
func NewStore(c *Client, kind dal.Kind) *Store {
	return &Store{client: c, kind: kind, facets: filter.ExtractFacets(nil)}
}

// Kind returns the listing kind the store holds.
func (s *Store) Kind() dal.Kind {
	return s.kind
}

// LoadListings fetches GET /deals/ or /demos/ and replaces the collection.
func (s *Store) LoadListings(ctx context.Context) ([]dal.Listing, error) {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	var listings []dal.Listing
	err := s.client.doJSON(ctx, http.MethodGet, s.kind.CollectionPath(), nil, &listings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		s.err = fmt.Errorf("load %s: %w", s.kind.Collection(), err)
		return nil, s.err
	}
	if listings == nil {
		listings = []dal.Listing{}
	}
	s.listings = listings
	s.facets = filter.ExtractFacets(listings)
	s.loaded = true
	s.err = nil
	return cloneAll(listings), nil
}

// Listings returns a copy of the current collection.
func (s *Store) Listings() []dal.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.listings)
}

// Facets returns the option domains of the current collection.
func (s *Store) Facets() filter.Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facets
}

// DefaultFilter is the reset filter state for the current collection.
func (s *Store) DefaultFilter() filter.State {
	return filter.Default(s.Facets())
}

// Loaded reports whether any load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Err returns the error of the most recent load, nil after a success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Find returns a copy of the listing with id.
func (s *Store) Find(id int64) (dal.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listings {
		if l.ID == id {
			return l.Clone(), true
		}
	}
	return dal.Listing{}, false
}

// Visible runs the facet filter over the current collection.
func (s *Store) Visible(state filter.State) View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{Listings: cloneAll(filter.Apply(s.listings, state)), Loading: s.inFlight > 0}
	switch {
	case len(v.Listings) > 0:
		v.Empty = NotEmpty
	case !s.loaded:
		v.Empty = NotLoaded
	case len(s.listings) == 0:
		v.Empty = NoListings
	default:
		v.Empty = FilteredOut
	}
	return v
}

func cloneAll(in []dal.Listing) []dal.Listing {
	out := make([]dal.Listing, len(in))
	for i, l := range in {
		out[i] = l.Clone()
	}
	return out
}
