package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/infrastructure/cache"
	"github.com/cartlens/backend/internal/infrastructure/sonar"
	"github.com/cartlens/backend/internal/monitoring"
	"github.com/cartlens/backend/internal/parser"
)

var zipcodeRegex = regexp.MustCompile(`^\d{5}$`)

// Source tags identifying which upstream produced an offer.
const (
	sourcePrimary  = "perplexity_sonar"
	sourceShopping = "serper_shopping"
)

// nearStaleFraction of the full TTL below which a cache hit is flagged
// near-stale. Flag only; no synchronous refresh.
const nearStaleFraction = 0.2

// AggregationConfig holds tunables for the orchestrator. Zero values fall
// back to the defaults the pipeline was designed around.
type AggregationConfig struct {
	MaxStores    int           // candidate store cap
	Concurrency  int           // fan-out gate width
	StoreTimeout time.Duration // per-store source call budget
	ProductTTL   time.Duration // aggregated products cache TTL
}

func (c *AggregationConfig) applyDefaults() {
	if c.MaxStores <= 0 {
		c.MaxStores = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 20 * time.Second
	}
	if c.ProductTTL <= 0 {
		c.ProductTTL = 4 * time.Hour
	}
}

// AggregateRequest is one aggregation call.
type AggregateRequest struct {
	Query   string
	Zipcode string
	Stores  []string // optional caller allowlist of store ids
	Enhance bool
}

// AggregationService fans a product query out across candidate stores,
// normalizes and groups what comes back, and fronts it all with the cache.
type AggregationService struct {
	cache     domain.CacheRepository
	primary   domain.PrimarySource
	shopping  domain.ShoppingSource
	directory domain.StoreDirectory
	metrics   *monitoring.Metrics
	log       *zap.Logger
	cfg       AggregationConfig
}

// NewAggregationService wires the orchestrator. All collaborators are passed
// explicitly; there are no ambient globals.
func NewAggregationService(
	cacheRepo domain.CacheRepository,
	primary domain.PrimarySource,
	shopping domain.ShoppingSource,
	directory domain.StoreDirectory,
	metrics *monitoring.Metrics,
	log *zap.Logger,
	cfg AggregationConfig,
) *AggregationService {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &AggregationService{
		cache:     cacheRepo,
		primary:   primary,
		shopping:  shopping,
		directory: directory,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
	}
}

// sourcedRecord is one product record plus the store and source that
// produced it, the unit that grouping consumes.
type sourcedRecord struct {
	record    domain.ProductRecord
	storeID   string
	storeName string
	source    string
}

// Aggregate runs one aggregation call: cache lookup, store resolution,
// bounded fan-out, grouping and cache write-back. Per-store failures are
// absorbed; the only errors returned are validation failures.
func (s *AggregationService) Aggregate(ctx context.Context, req AggregateRequest) (*domain.AggregateResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if !zipcodeRegex.MatchString(req.Zipcode) {
		return nil, fmt.Errorf("%w: invalid zipcode format", domain.ErrInvalidRequest)
	}
	s.metrics.IncAggregate()

	storeIDs := s.resolveStores(ctx, req)

	key := cache.ProductsKey(req.Zipcode, req.Query, storeIDs, req.Enhance)
	if resp := s.cachedResult(ctx, key); resp != nil {
		return resp, nil
	}
	s.metrics.IncCacheMiss("products")

	records := s.fanOut(ctx, req, storeIDs)
	result := domain.AggregateResult{
		Query:            req.Query,
		Zipcode:          req.Zipcode,
		StoresConsidered: storeIDs,
		Results:          groupRecords(records),
		Source:           "aggregate(sonar)",
	}

	// A failed write must never turn a computed result into an error.
	if err := s.cache.SetJSON(ctx, key, result, s.cfg.ProductTTL); err != nil {
		s.log.Warn("aggregate cache write failed", zap.String("key", key), zap.Error(err))
	}

	return &domain.AggregateResponse{AggregateResult: result}, nil
}

// resolveStores picks the candidate store set: the caller's allowlist
// verbatim (case-normalized, order preserved) or directory discovery, both
// capped at MaxStores.
func (s *AggregationService) resolveStores(ctx context.Context, req AggregateRequest) []string {
	if len(req.Stores) > 0 {
		ids := make([]string, 0, len(req.Stores))
		for _, raw := range req.Stores {
			id := strings.ToLower(strings.TrimSpace(raw))
			if id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) > s.cfg.MaxStores {
			ids = ids[:s.cfg.MaxStores]
		}
		return ids
	}

	refs, err := s.directory.NearbyStores(ctx, req.Zipcode)
	if err != nil {
		s.log.Warn("store discovery failed", zap.String("zipcode", req.Zipcode), zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.StoreID)
	}
	if len(ids) > s.cfg.MaxStores {
		ids = ids[:s.cfg.MaxStores]
	}
	return ids
}

// cachedResult returns the cached response for key, annotated near-stale when
// the remaining TTL dips under nearStaleFraction of the full TTL.
func (s *AggregationService) cachedResult(ctx context.Context, key string) *domain.AggregateResponse {
	var cached domain.AggregateResult
	if err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		return nil
	}
	s.metrics.IncCacheHit("products")

	nearStale := false
	if remaining, err := s.cache.TTLRemaining(ctx, key); err == nil {
		nearStale = remaining > 0 && remaining < time.Duration(nearStaleFraction*float64(s.cfg.ProductTTL))
	}
	return &domain.AggregateResponse{
		AggregateResult: cached,
		Cache:           domain.CacheInfo{Hit: true, NearStale: nearStale},
	}
}

// fanOut issues one bounded, individually-timed sub-task per candidate store
// and joins them all before returning. Records land in completion order; a
// store that fails or times out simply contributes nothing.
func (s *AggregationService) fanOut(ctx context.Context, req AggregateRequest, storeIDs []string) []sourcedRecord {
	var (
		mu      sync.Mutex
		records []sourcedRecord
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for _, storeID := range storeIDs {
		g.Go(func() error {
			found := s.fetchStore(ctx, req, storeID)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			records = append(records, found...)
			mu.Unlock()
			return nil
		})
	}
	// Sub-tasks never return errors; Wait is the structured join.
	_ = g.Wait()
	return records
}

// fetchStore queries the primary source for one store, falling back to the
// shopping source (at most once) when the primary yields no product records.
func (s *AggregationService) fetchStore(ctx context.Context, req AggregateRequest, storeID string) []sourcedRecord {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	storeName := s.directory.DisplayName(storeID)

	var records []domain.ProductRecord
	if s.primary != nil && s.primary.Available() {
		prompt := sonar.ProductSearchPrompt(req.Query, storeName, req.Zipcode)
		raw, err := s.primary.Query(ctx, prompt)
		if err != nil {
			s.metrics.IncStoreFailure("primary")
			s.log.Warn("primary source failed for store",
				zap.String("store_id", storeID), zap.Error(err))
		} else {
			records = parser.ParseProducts(raw.Content)
			records = EnrichProductLinks(records, raw)
		}
	}

	sourceTag := sourcePrimary
	if len(records) == 0 && s.shopping != nil && s.shopping.Available() {
		s.metrics.IncFallback()
		fallback, err := s.shopping.SearchShopping(ctx, req.Query, storeID, "United States")
		if err != nil {
			s.metrics.IncStoreFailure("shopping")
			s.log.Warn("shopping fallback failed for store",
				zap.String("store_id", storeID), zap.Error(err))
			return nil
		}
		records = fallback
		sourceTag = sourceShopping
	}

	out := make([]sourcedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, sourcedRecord{
			record:    r,
			storeID:   storeID,
			storeName: storeName,
			source:    sourceTag,
		})
	}
	return out
}

// minGroupMatchScore is the name-overlap threshold for folding a record with
// an incomplete identity into an existing canonical product.
const minGroupMatchScore = 0.5

// groupRecords folds records into canonical products keyed by normalized
// brand/name/size. Records with a full identity group first on exact keys;
// records missing brand or size (shopping rows carry only a title) then merge
// into the best name-overlapping group so the same product sold under a
// looser title does not split. The first-seen record supplies the display
// identity; images accumulate distinct non-empty URLs across the whole group.
func groupRecords(records []sourcedRecord) []domain.ProductGroup {
	groups := make(map[string]*domain.ProductGroup)
	var order []string

	addTo := func(group *domain.ProductGroup, sr sourcedRecord) {
		if sr.record.ImageURL != "" && !contains(group.CanonicalProduct.Images, sr.record.ImageURL) {
			group.CanonicalProduct.Images = append(group.CanonicalProduct.Images, sr.record.ImageURL)
		}
		group.Offers = append(group.Offers, domain.Offer{
			StoreID:      sr.storeID,
			StoreName:    sr.storeName,
			Price:        sr.record.Price,
			Availability: sr.record.Availability,
			ProductURL:   sr.record.ProductURL,
			ImageURL:     sr.record.ImageURL,
			Source:       []string{sr.source},
		})
	}

	newGroup := func(key string, sr sourcedRecord) *domain.ProductGroup {
		group := &domain.ProductGroup{
			GroupKey: key,
			CanonicalProduct: domain.CanonicalProduct{
				Name:   sr.record.Name,
				Brand:  sr.record.Brand,
				Size:   sr.record.Size,
				Images: []string{},
			},
		}
		groups[key] = group
		order = append(order, key)
		return group
	}

	var weak []sourcedRecord
	for _, sr := range records {
		if sr.record.Brand == "" || sr.record.Size == "" {
			weak = append(weak, sr)
			continue
		}
		key := GroupKey(sr.record.Brand, sr.record.Name, sr.record.Size)
		group, ok := groups[key]
		if !ok {
			group = newGroup(key, sr)
		}
		addTo(group, sr)
	}

	for _, sr := range weak {
		if group := bestMatchingGroup(groups, order, sr.record.Name); group != nil {
			addTo(group, sr)
			continue
		}
		key := GroupKey(sr.record.Brand, sr.record.Name, sr.record.Size)
		group, ok := groups[key]
		if !ok {
			group = newGroup(key, sr)
		}
		addTo(group, sr)
	}

	results := make([]domain.ProductGroup, 0, len(order))
	for _, key := range order {
		results = append(results, *groups[key])
	}
	return results
}

// bestMatchingGroup finds the existing group whose canonical name overlaps
// the given name most, or nil when nothing clears the threshold.
func bestMatchingGroup(groups map[string]*domain.ProductGroup, order []string, name string) *domain.ProductGroup {
	normalized := NormText(name)
	bestScore := 0.0
	var best *domain.ProductGroup
	for _, key := range order {
		group := groups[key]
		score := tokenOverlap(normalized, NormText(group.CanonicalProduct.Name))
		if score >= minGroupMatchScore && score > bestScore {
			bestScore = score
			best = group
		}
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
