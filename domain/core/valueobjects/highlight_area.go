package valueobjects

import (
	"fmt"

	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// HighlightArea is one rectangle of a highlight on a rendered page.
// Coordinates are percentages of the page box, as produced by the viewer.
type HighlightArea struct {
	PageIndex int     `json:"pageIndex"`
	Top       float64 `json:"top"`
	Left      float64 `json:"left"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// Validate checks the rectangle is addressable
func (a HighlightArea) Validate() error {
	if a.PageIndex < 0 {
		return pkgerrors.NewValidationError(fmt.Sprintf("page index cannot be negative: %d", a.PageIndex))
	}
	if a.Width < 0 || a.Height < 0 {
		return pkgerrors.NewValidationError("highlight area cannot have negative size")
	}
	if a.Top < 0 || a.Left < 0 {
		return pkgerrors.NewValidationError("highlight area cannot start off-page")
	}
	return nil
}

// Equals checks if two areas describe the same rectangle
func (a HighlightArea) Equals(other HighlightArea) bool {
	return a == other
}

// HighlightAreas is the position descriptor of one highlight
type HighlightAreas []HighlightArea

// Pages returns the distinct page indexes covered, in first-seen order
func (as HighlightAreas) Pages() []int {
	seen := make(map[int]bool, len(as))
	pages := make([]int, 0, len(as))
	for _, a := range as {
		if !seen[a.PageIndex] {
			seen[a.PageIndex] = true
			pages = append(pages, a.PageIndex)
		}
	}
	return pages
}

// Clone returns an independent copy
func (as HighlightAreas) Clone() HighlightAreas {
	if as == nil {
		return nil
	}
	out := make(HighlightAreas, len(as))
	copy(out, as)
	return out
}
