package domain

import (
	"context"
	"time"
)

// CacheRepository defines the staleness-aware cache used by the aggregation
// pipeline. Implementations store compressed JSON payloads; a missing backing
// store must degrade to always-miss, never to an error.
type CacheRepository interface {
	// GetJSON unmarshals the payload at key into dest, or returns ErrCacheMiss.
	GetJSON(ctx context.Context, key string, dest any) error
	// SetJSON stores value at key for ttl.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// TTLRemaining returns the remaining lifetime of key, ErrNoExpiry for a
	// persistent key, or ErrCacheMiss for an absent one.
	TTLRemaining(ctx context.Context, key string) (time.Duration, error)
}

// PrimarySource is the AI text-answering source. Any upstream failure mode is
// surfaced as a single ErrSourceFailure; ErrSourceUnavailable means no
// credentials are configured.
type PrimarySource interface {
	Available() bool
	Query(ctx context.Context, prompt string) (*RawSourceResponse, error)
}

// ShoppingSource is the structured shopping-search fallback.
type ShoppingSource interface {
	Available() bool
	SearchShopping(ctx context.Context, query, storeID, location string) ([]ProductRecord, error)
}

// StoreDirectory resolves candidate stores for a location. It may be cached or
// stateful; the orchestrator treats it as a black box.
type StoreDirectory interface {
	NearbyStores(ctx context.Context, zipcode string) ([]StoreRef, error)
	DisplayName(storeID string) string
}
