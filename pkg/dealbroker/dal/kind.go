package dal

import (
	"fmt"
	"strings"
)

// Kind tells deals and demos apart. Both collections share the Listing shape.
type Kind string

const (
	KindDeal Kind = "deal"
	KindDemo Kind = "demo"
)

// Kinds lists every listing kind in display order.
var Kinds = []Kind{KindDeal, KindDemo}

// ParseKind accepts the singular or plural form of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deal", "deals":
		return KindDeal, nil
	case "demo", "demos":
		return KindDemo, nil
	}
	return "", fmt.Errorf("unknown listing kind %q", s)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindDeal || k == KindDemo
}

// Collection returns the REST collection name, e.g. "deals".
func (k Kind) Collection() string {
	return string(k) + "s"
}

// CollectionPath returns the collection endpoint with its trailing slash.
func (k Kind) CollectionPath() string {
	return "/" + k.Collection() + "/"
}

// ItemPath returns the endpoint for a single listing.
func (k Kind) ItemPath(id int64) string {
	return fmt.Sprintf("/%s/%d", k.Collection(), id)
}

// UploadPath returns the image upload endpoint for the kind.
func (k Kind) UploadPath() string {
	return "/upload/" + string(k) + "-image/"
}

func (k Kind) String() string {
	return string(k)
}
