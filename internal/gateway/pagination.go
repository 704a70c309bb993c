package gateway

import (
	"context"
	"fmt"
)

// page is the pagination envelope shared by cursor-style listing endpoints.
type page[T any] struct {
	Values []T    `json:"values"`
	Next   string `json:"next"`
}

// pageFetcher retrieves the page at pageURL.
type pageFetcher[T any] func(ctx context.Context, pageURL string) (*page[T], error)

// paginate follows next cursors from first until a page carries none, accumulating values.
// Pages are requested strictly one after another since each cursor comes from the prior response.
func paginate[T any](ctx context.Context, first string, fetch pageFetcher[T]) ([]T, error) {
	var all []T
	for next := first; next != ""; {
		p, err := fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Values...)
		if p.Next == next {
			return nil, fmt.Errorf("pagination cursor %q points to itself", next)
		}
		next = p.Next
	}
	return all, nil
}
