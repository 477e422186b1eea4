package domain

// GalleryState is the single piece of mutable state of a gallery session.
// It is owned by the session; everything else receives copies.
type GalleryState struct {
	IsLoading     bool       `json:"is_loading"`
	IsLoadingMore bool       `json:"is_loading_more"`
	Images        []CatImage `json:"images"`
	CurrentPage   int        `json:"current_page"`
	CanLoadMore   bool       `json:"can_load_more"`
	Error         string     `json:"error,omitempty"` // empty when absent
}

// NewGalleryState returns the state a session starts with.
func NewGalleryState() GalleryState {
	return GalleryState{
		Images:      []CatImage{},
		CurrentPage: NoPage,
		CanLoadMore: true,
	}
}

// Clone returns a deep copy safe to hand to observers.
func (s GalleryState) Clone() GalleryState {
	images := make([]CatImage, len(s.Images))
	copy(images, s.Images)
	s.Images = images
	return s
}

// HasError reports whether the last fetch failed.
func (s GalleryState) HasError() bool {
	return s.Error != ""
}

// Busy reports whether a page is being fetched.
func (s GalleryState) Busy() bool {
	return s.IsLoading || s.IsLoadingMore
}
