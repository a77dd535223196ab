// Package scraper turns a product page URL into wish item attributes.
package scraper

import (
	"context"
	"errors"
)

// ErrNoTitle is returned when extraction succeeded but found no title
var ErrNoTitle = errors.New("extraction returned no title")

// Result is the metadata extracted from a product page
type Result struct {
	Title       string
	Description *string
	ImageURL    *string
	Price       *float64
}

// Extractor fetches and extracts product metadata from a URL. Extract must
// honour ctx cancellation.
type Extractor interface {
	Extract(ctx context.Context, url string) (*Result, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, url string) (*Result, error)

// Extract calls f(ctx, url)
func (f ExtractorFunc) Extract(ctx context.Context, url string) (*Result, error) {
	return f(ctx, url)
}
