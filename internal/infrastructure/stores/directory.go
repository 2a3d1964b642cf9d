// Package stores resolves candidate stores for a location: live discovery
// through the primary source when available, static zipcode-range coverage
// tables otherwise, with discovery results cached for a day.
package stores

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/infrastructure/cache"
	"github.com/cartlens/backend/internal/infrastructure/sonar"
	"github.com/cartlens/backend/internal/parser"
)

type zipRange struct {
	lo, hi int
}

var nationwide = []zipRange{{0, 99999}}

// coverage maps store ids to the zipcode ranges they serve. Pure
// configuration; used only when live discovery is unavailable or empty.
var coverage = map[string][]zipRange{
	"giant_eagle": {
		{15000, 16999}, // PA
		{43000, 45999}, // OH
		{25000, 26999}, // WV
		{46000, 47999}, // IN
		{21000, 21999}, // MD
	},
	"wegmans": {
		{10000, 14999}, // NY
		{15000, 16999}, // PA
		{7000, 8999},   // NJ
		{22000, 22999}, // VA
		{21000, 21999}, // MD
		{1000, 2799},   // MA
		{27000, 28999}, // NC
	},
	"aldi":       nationwide,
	"albertsons": nationwide,
	"shoprite": {
		{10000, 14999}, // NY
		{15000, 16999}, // PA
		{7000, 8999},   // NJ
		{1000, 2799},   // MA
		{6000, 6999},   // CT
	},
}

// displayNames maps canonical store ids to the names used when prompting
// sources; anything absent falls back to a title-cased id.
var displayNames = map[string]string{
	"giant_eagle":    "Giant Eagle",
	"whole_foods":    "Whole Foods Market",
	"sams_club":      "Sam's Club",
	"trader_joes":    "Trader Joe's",
	"ahold_delhaize": "Stop & Shop",
	"aldi":           "ALDI",
	"hy_vee":         "Hy-Vee",
}

// Directory implements domain.StoreDirectory.
type Directory struct {
	primary  domain.PrimarySource
	cache    domain.CacheRepository
	storeTTL time.Duration
	log      *zap.Logger
}

// NewDirectory creates a store directory backed by live discovery and the
// static coverage tables.
func NewDirectory(primary domain.PrimarySource, cacheRepo domain.CacheRepository, storeTTL time.Duration, log *zap.Logger) *Directory {
	if storeTTL <= 0 {
		storeTTL = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{primary: primary, cache: cacheRepo, storeTTL: storeTTL, log: log}
}

// NearbyStores returns the stores serving a zipcode. Discovery failures fall
// back to the static coverage tables rather than erroring.
func (d *Directory) NearbyStores(ctx context.Context, zipcode string) ([]domain.StoreRef, error) {
	if result, err := d.cachedDiscovery(ctx, zipcode); err == nil {
		return toRefs(result.Stores), nil
	}

	if d.primary != nil && d.primary.Available() {
		records, err := d.discover(ctx, zipcode)
		if err != nil {
			d.log.Warn("store discovery failed, using static coverage",
				zap.String("zipcode", zipcode), zap.Error(err))
		} else if len(records) > 0 {
			return toRefs(records), nil
		}
	}

	return d.staticStores(zipcode), nil
}

// Discover runs live discovery (or static fallback) and returns the full
// store records, for callers that want more than refs.
func (d *Directory) Discover(ctx context.Context, zipcode string) (*domain.StoreDiscoveryResult, error) {
	if result, err := d.cachedDiscovery(ctx, zipcode); err == nil {
		return result, nil
	}

	if d.primary != nil && d.primary.Available() {
		records, err := d.discover(ctx, zipcode)
		if err == nil && len(records) > 0 {
			return &domain.StoreDiscoveryResult{
				Zipcode:     zipcode,
				StoresFound: len(records),
				Stores:      records,
				Source:      "perplexity_sonar",
			}, nil
		}
		if err != nil {
			d.log.Warn("store discovery failed, using static coverage",
				zap.String("zipcode", zipcode), zap.Error(err))
		}
	}

	records := refsToRecords(d.staticStores(zipcode))
	return &domain.StoreDiscoveryResult{
		Zipcode:     zipcode,
		StoresFound: len(records),
		Stores:      records,
		Source:      "static_coverage",
	}, nil
}

func (d *Directory) cachedDiscovery(ctx context.Context, zipcode string) (*domain.StoreDiscoveryResult, error) {
	if d.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	var result domain.StoreDiscoveryResult
	if err := d.cache.GetJSON(ctx, cache.StoresKey(zipcode), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (d *Directory) discover(ctx context.Context, zipcode string) ([]domain.StoreRecord, error) {
	raw, err := d.primary.Query(ctx, sonar.StoreDiscoveryPrompt(zipcode))
	if err != nil {
		return nil, err
	}
	records := parser.ParseStores(raw.Content)
	if len(records) == 0 {
		return nil, nil
	}

	if d.cache != nil {
		payload := domain.StoreDiscoveryResult{
			Zipcode:     zipcode,
			StoresFound: len(records),
			Stores:      records,
			Source:      "perplexity_sonar",
		}
		if err := d.cache.SetJSON(ctx, cache.StoresKey(zipcode), payload, d.storeTTL); err != nil {
			d.log.Warn("store discovery cache write failed", zap.Error(err))
		}
	}
	return records, nil
}

func (d *Directory) staticStores(zipcode string) []domain.StoreRef {
	zip, err := strconv.Atoi(zipcode)
	if err != nil {
		return nil
	}
	var refs []domain.StoreRef
	for id, ranges := range coverage {
		for _, r := range ranges {
			if zip >= r.lo && zip <= r.hi {
				refs = append(refs, domain.StoreRef{StoreID: id, StoreName: d.DisplayName(id)})
				break
			}
		}
	}
	// Map iteration order is random; keep the candidate set stable so the
	// cache key and stores_considered are deterministic.
	sort.Slice(refs, func(i, j int) bool { return refs[i].StoreID < refs[j].StoreID })
	return refs
}

// DisplayName maps a canonical store id to its human-facing name.
func (d *Directory) DisplayName(storeID string) string {
	if name, ok := displayNames[storeID]; ok {
		return name
	}
	return titleCase(strings.ReplaceAll(storeID, "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func toRefs(records []domain.StoreRecord) []domain.StoreRef {
	refs := make([]domain.StoreRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, domain.StoreRef{StoreID: r.StoreID, StoreName: r.StoreName})
	}
	return refs
}

func refsToRecords(refs []domain.StoreRef) []domain.StoreRecord {
	records := make([]domain.StoreRecord, 0, len(refs))
	for _, r := range refs {
		records = append(records, domain.StoreRecord{
			StoreID:   r.StoreID,
			StoreName: r.StoreName,
			Status:    "active",
		})
	}
	return records
}
