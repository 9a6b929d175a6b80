package domain

import "context"

// ZipGeocoder converts coordinates to a postal code.
type ZipGeocoder interface {
	// ReverseGeocode returns the zip code at (lat, lon). Failures are absorbed
	// by the implementation and reported as ok == false.
	ReverseGeocode(ctx context.Context, lat, lon float64) (zip string, ok bool)
}

// GeocodeCache persists resolved zip codes keyed by rounded coordinates.
// A nil value records a location that could not be resolved.
type GeocodeCache interface {
	Lookup(ctx context.Context, key string) (value *string, found bool, err error)
	Store(ctx context.Context, key string, value *string) error
}
