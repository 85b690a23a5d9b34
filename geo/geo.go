// Package geo defines the location model and the resolver contract used by
// risk assessment. The library ships no IP database; callers plug in their
// own Resolver (MaxMind, an internal service, a static table).
package geo

import "context"

// Location is a resolved geographic position for an IP address. CountryCode
// is ISO 3166-1 alpha-2. Coordinates are only meaningful when HasCoordinates
// is set.
type Location struct {
	CountryCode    string  `json:"country_code,omitempty"`
	City           string  `json:"city,omitempty"`
	Timezone       string  `json:"timezone,omitempty"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	HasCoordinates bool    `json:"has_coordinates,omitempty"`
}

// Resolver maps an IP address to a Location. Implementations return a nil
// Location (and nil error) when the address cannot be resolved; errors are
// reserved for lookup failures.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ip string) (*Location, error)

func (f ResolverFunc) Resolve(ctx context.Context, ip string) (*Location, error) {
	return f(ctx, ip)
}

// StaticResolver resolves from a fixed in-memory table. Useful for tests and
// small deployments with a known address space.
type StaticResolver struct {
	entries map[string]Location
}

// NewStaticResolver copies the given table into a resolver.
func NewStaticResolver(entries map[string]Location) *StaticResolver {
	copied := make(map[string]Location, len(entries))
	for ip, loc := range entries {
		copied[ip] = loc
	}
	return &StaticResolver{entries: copied}
}

func (r *StaticResolver) Resolve(_ context.Context, ip string) (*Location, error) {
	loc, ok := r.entries[ip]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}
