package filter

import "sort"

// TagSet is an immutable set of selected tags. Mutating helpers return a
// new set.
type TagSet struct {
	tags map[string]struct{}
}

// NewTagSet builds a set from tags, ignoring duplicates.
func NewTagSet(tags ...string) TagSet {
	m := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}
	return TagSet{tags: m}
}

// Len returns the number of selected tags.
func (t TagSet) Len() int {
	return len(t.tags)
}

// Has reports whether tag is selected.
func (t TagSet) Has(tag string) bool {
	_, ok := t.tags[tag]
	return ok
}

// Toggle returns a copy with tag flipped.
func (t TagSet) Toggle(tag string) TagSet {
	next := NewTagSet(t.Slice()...)
	if t.Has(tag) {
		delete(next.tags, tag)
	} else {
		next.tags[tag] = struct{}{}
	}
	return next
}

// Without returns a copy with tag removed.
func (t TagSet) Without(tag string) TagSet {
	next := NewTagSet(t.Slice()...)
	delete(next.tags, tag)
	return next
}

// Slice returns the selected tags sorted.
func (t TagSet) Slice() []string {
	out := make([]string, 0, len(t.tags))
	for tag := range t.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// MatchesAny passes when nothing is selected or when at least one of tags
// is selected. Nil and empty tags are both "no tags".
func (t TagSet) MatchesAny(tags []string) bool {
	if t.Len() == 0 {
		return true
	}
	for _, tag := range tags {
		if t.Has(tag) {
			return true
		}
	}
	return false
}
