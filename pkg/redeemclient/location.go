package redeemclient

import (
	"context"

	"github.com/asucbc/cbc-api/pkg/geo"
)

// LocationProvider returns the device's current position. Implementations
// must honor ctx.
type LocationProvider interface {
	Locate(ctx context.Context) (geo.Point, error)
}

// LocationFunc adapts a function to LocationProvider
type LocationFunc func(ctx context.Context) (geo.Point, error)

func (f LocationFunc) Locate(ctx context.Context) (geo.Point, error) {
	return f(ctx)
}

// StaticLocation always reports the same position
type StaticLocation geo.Point

func (s StaticLocation) Locate(ctx context.Context) (geo.Point, error) {
	if err := ctx.Err(); err != nil {
		return geo.Point{}, err
	}
	return geo.Point(s), nil
}
