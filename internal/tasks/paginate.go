package tasks

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

// PageFunc fetches one page of a list endpoint.
type PageFunc[T any] func(ctx context.Context, opts services.PageOptions) (*services.Page[T], error)

// Paginate follows the next cursor of a list endpoint and yields every item across pages.
//
// The offset of each request after the first comes from the previous page's next URL.
// Requests are spaced by pacer. An invalid endpoint or nil fetch yields [shared.ErrUnknownEndpoint] before any request.
// Iteration stops at the first error, which is yielded with the zero item.
func Paginate[T any](ctx context.Context, pacer *Pacer, endpoint services.Endpoint, fetch PageFunc[T], opts services.PageOptions) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		if err := endpoint.Validate(); err != nil {
			yield(zero, err)
			return
		}
		if fetch == nil {
			yield(zero, fmt.Errorf("%w: %s has no fetch function", shared.ErrUnknownEndpoint, endpoint))
			return
		}

		for {
			if err := pacer.Wait(ctx); err != nil {
				yield(zero, err)
				return
			}

			page, err := fetch(ctx, opts)
			if err != nil {
				yield(zero, err)
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}

			if page.Next == "" {
				return
			}
			opts.Offset = OffsetFromNext(page.Next)
		}
	}
}

// OffsetFromNext extracts the offset query parameter of a next-page URL, defaulting to 0.
func OffsetFromNext(next string) int {
	u, err := url.Parse(next)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(u.Query().Get("offset"))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var items []T
	for item, err := range seq {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}
