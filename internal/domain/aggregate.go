package domain

// StoreRef identifies one candidate store for an aggregation call.
type StoreRef struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
}

// Offer is one store's price/availability/link for a canonical product,
// annotated with the source that produced it.
type Offer struct {
	StoreID      string   `json:"store_id"`
	StoreName    string   `json:"store_name"`
	Price        Price    `json:"price"`
	Availability string   `json:"availability,omitempty"`
	ProductURL   string   `json:"product_url,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Source       []string `json:"source"`
}

// CanonicalProduct is the deduplicated product identity shared by all offers
// with the same normalized brand/name/size. The first-seen offer supplies the
// display fields; images accumulate across the whole group.
type CanonicalProduct struct {
	Name   string   `json:"name"`
	Brand  string   `json:"brand,omitempty"`
	Size   string   `json:"size,omitempty"`
	Images []string `json:"images"`
}

// ProductGroup pairs a canonical product with the per-store offers grouped
// under it.
type ProductGroup struct {
	GroupKey         string           `json:"group_key"`
	CanonicalProduct CanonicalProduct `json:"canonical_product"`
	Offers           []Offer          `json:"offers"`
}

// AggregateResult is the cacheable body of one aggregation run.
type AggregateResult struct {
	Query            string         `json:"query"`
	Zipcode          string         `json:"zipcode"`
	StoresConsidered []string       `json:"stores_considered"`
	Results          []ProductGroup `json:"results"`
	Source           string         `json:"source"`
}

// CacheInfo annotates a response with how the cache behaved for this call.
type CacheInfo struct {
	Hit       bool `json:"hit"`
	NearStale bool `json:"near_stale"`
}

// AggregateResponse is what callers receive: the result plus cache provenance.
type AggregateResponse struct {
	AggregateResult
	Cache CacheInfo `json:"cache"`
}

// StoreDiscoveryResult is the cacheable body of one store-discovery run.
type StoreDiscoveryResult struct {
	Zipcode     string        `json:"zipcode"`
	StoresFound int           `json:"stores_found"`
	Stores      []StoreRecord `json:"stores"`
	Source      string        `json:"source"`
}
