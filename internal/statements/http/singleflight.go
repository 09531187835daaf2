package http

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var consolidatedGroup singleflight.Group

// singleflightBuild deduplicates concurrent builds of the same consolidated
// view so a burst of identical requests hits the ledgers once.
func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error, bool) {
	resultChan := consolidatedGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
