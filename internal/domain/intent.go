package domain

import (
	"fmt"
	"strings"
)

// Intent is a request to change gallery state.
type Intent int

const (
	LoadImages Intent = iota
	RefreshImages
	LoadMoreImages
)

func (i Intent) String() string {
	switch i {
	case LoadImages:
		return "load"
	case RefreshImages:
		return "refresh"
	case LoadMoreImages:
		return "load_more"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// ParseIntent maps the wire name of an intent back to its value.
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "load", "load_images":
		return LoadImages, nil
	case "refresh", "refresh_images":
		return RefreshImages, nil
	case "load_more", "load_more_images", "more":
		return LoadMoreImages, nil
	default:
		return 0, fmt.Errorf("unknown intent: %q", s)
	}
}
