// Package parser turns raw text answers from the primary source into typed
// store and product records. Upstream text is requested in a KEY: template but
// does not reliably follow it, so a strict line-oriented pass is backed by a
// loose keyword scanner.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cartlens/backend/internal/domain"
)

// Field prefixes the strict pass recognizes, per record kind.
const (
	fieldStore    = "STORE"
	fieldAddress  = "ADDRESS"
	fieldServices = "SERVICES"
	fieldWebsite  = "WEBSITE"
	fieldStatus   = "STATUS"

	fieldProduct      = "PRODUCT"
	fieldBrand        = "BRAND"
	fieldPrice        = "PRICE"
	fieldSize         = "SIZE"
	fieldCategory     = "CATEGORY"
	fieldAvailability = "AVAILABILITY"
	fieldDescription  = "DESCRIPTION"
	fieldImageURL     = "IMAGE_URL"
	fieldDeals        = "DEALS"
)

var (
	priceRegex    = regexp.MustCompile(`\$(\d+\.?\d*)`)
	imageURLRegex = regexp.MustCompile(`(?i)https?://\S+\.(?:jpg|jpeg|png|gif|webp|svg)`)
	sizeRegex     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:fl oz|oz|ounce|ounces|gallon|pack|count|ml|l))\b`)
	urlRegex      = regexp.MustCompile(`https?://\S+`)
)

// knownServices is the allowlist for SERVICES values.
var knownServices = map[string]bool{
	"delivery": true,
	"pickup":   true,
	"curbside": true,
	"in-store": true,
	"online":   true,
}

// knownStoreNames drives the loose fallback for store parsing.
var knownStoreNames = []string{
	"Giant Eagle", "Wegmans", "ALDI", "Albertsons", "ShopRite",
	"Walmart", "Target", "Kroger", "Safeway", "Publix",
	"Whole Foods", "Trader Joe's", "Sprouts", "Food Lion",
	"Meijer", "Hy-Vee", "Stop & Shop", "Giant", "Shoppers", "Harris Teeter",
}

// productKeywords drives the loose fallback for product parsing: a line
// mentioning one of these is taken as a product name.
var productKeywords = []string{
	"oatly", "chobani", "silk", "oat", "almond", "soy",
	"milk", "yogurt", "cheese", "butter", "eggs", "bread",
	"juice", "coffee", "cereal", "granola",
}

var availabilityKeywords = []string{
	"in stock", "available", "out of stock", "unavailable", "limited",
}

var dealKeywords = []string{
	"discount", "sale", "off", "deal", "promotion",
}

// ParseStores extracts store records from a raw text answer. It never fails:
// malformed input yields a best-effort, possibly empty, list.
func ParseStores(text string) []domain.StoreRecord {
	stores := parseStoreSections(text)
	if len(stores) == 0 {
		stores = scanStoresByName(text)
	}
	return dedupeStores(stores)
}

// ParseProducts extracts product records from a raw text answer. It never
// fails: malformed input yields a best-effort, possibly empty, list.
func ParseProducts(text string) []domain.ProductRecord {
	if strings.Contains(strings.ToLower(text), "no products found") {
		return nil
	}
	products := parseProductSections(text)
	if len(products) == 0 {
		products = scanProductsByKeyword(text)
	}
	return dedupeProducts(products)
}

// splitSections groups lines between blank-line boundaries.
func splitSections(text string) [][]string {
	var sections [][]string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				sections = append(sections, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, current)
	}
	return sections
}

// fieldValue splits "KEY: value" and reports whether the line carried the
// given field prefix. Placeholder echoes of the template (bracketed values or
// a bare "N/A") count as absent.
func fieldValue(line, field string) (string, bool) {
	prefix := field + ":"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	value := strings.TrimSpace(line[len(prefix):])
	if value == "" || isPlaceholder(value) {
		return "", true
	}
	return value, true
}

// isPlaceholder reports whether a field value is the template echoed back
// unfilled, e.g. "[Product Name]" or "N/A".
func isPlaceholder(value string) bool {
	if value == "N/A" {
		return true
	}
	return len(value) >= 2 && strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]")
}

func parseStoreSections(text string) []domain.StoreRecord {
	var stores []domain.StoreRecord
	for _, section := range splitSections(text) {
		var current *domain.StoreRecord
		for _, line := range section {
			if name, ok := fieldValue(line, fieldStore); ok {
				if current != nil && current.StoreName != "" {
					stores = append(stores, *current)
				}
				current = nil
				if name != "" {
					current = &domain.StoreRecord{
						StoreID:   Slug(name),
						StoreName: name,
						Status:    "active",
					}
				}
				continue
			}
			if current == nil {
				continue
			}
			if v, ok := fieldValue(line, fieldAddress); ok {
				if v != "" && !strings.HasPrefix(v, "-") {
					current.Address = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldServices); ok {
				if services := parseServices(v); len(services) > 0 {
					current.Services = services
				}
				continue
			}
			if v, ok := fieldValue(line, fieldWebsite); ok {
				if v != "" {
					current.Website = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldStatus); ok {
				if v != "" {
					current.Status = v
				}
				continue
			}
		}
		if current != nil && current.StoreName != "" {
			stores = append(stores, *current)
		}
	}
	return stores
}

func parseServices(text string) []string {
	var services []string
	for _, part := range strings.Split(text, ",") {
		service := strings.ToLower(strings.TrimSpace(part))
		if knownServices[service] {
			services = append(services, service)
		}
	}
	return services
}

func parseProductSections(text string) []domain.ProductRecord {
	var products []domain.ProductRecord
	for _, section := range splitSections(text) {
		var current domain.ProductRecord
		for _, line := range section {
			if v, ok := fieldValue(line, fieldProduct); ok {
				if v != "" {
					current.Name = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldBrand); ok {
				if v != "" {
					current.Brand = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldPrice); ok {
				if v != "" {
					current.Price = parsePrice(v)
				}
				continue
			}
			if v, ok := fieldValue(line, fieldSize); ok {
				if v != "" {
					current.Size = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldCategory); ok {
				if v != "" {
					current.Category = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldAvailability); ok {
				if v != "" {
					current.Availability = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldDescription); ok {
				if v != "" {
					current.Description = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldImageURL); ok {
				if v != "" {
					current.ImageURL = v
				}
				continue
			}
			if v, ok := fieldValue(line, fieldDeals); ok {
				if v != "" {
					current.Deals = v
				}
				continue
			}
			// Bare image URL on an unmarked line, accepted only while no
			// explicit IMAGE_URL has been seen.
			if current.ImageURL == "" {
				if m := imageURLRegex.FindString(line); m != "" {
					current.ImageURL = m
				}
			}
		}
		if current.Name != "" {
			products = append(products, current)
		}
	}
	return products
}

// parsePrice extracts the first $-amount, falling back to the raw text.
func parsePrice(text string) domain.Price {
	if m := priceRegex.FindStringSubmatch(text); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			return domain.PriceFromAmount(amount)
		}
	}
	return domain.PriceFromText(text)
}

// scanStoresByName is the loose fallback: substring matches against known
// store names, one record per match.
func scanStoresByName(text string) []domain.StoreRecord {
	lower := strings.ToLower(text)
	var stores []domain.StoreRecord
	for _, name := range knownStoreNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			stores = append(stores, domain.StoreRecord{
				StoreID:   Slug(name),
				StoreName: name,
				Status:    "active",
			})
		}
	}
	return stores
}

// scanProductsByKeyword is the loose fallback: a line-by-line scan for brand
// keywords, prices, sizes, availability and image URLs. A blank line closes
// the in-progress record.
func scanProductsByKeyword(text string) []domain.ProductRecord {
	var products []domain.ProductRecord
	var current domain.ProductRecord

	flush := func() {
		if current.Name != "" {
			products = append(products, current)
		}
		current = domain.ProductRecord{}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		lower := strings.ToLower(line)

		if current.Name == "" && containsAny(lower, productKeywords) && !urlRegex.MatchString(line) {
			current.Name = line
			continue
		}
		if m := priceRegex.FindStringSubmatch(line); m != nil && current.Price.IsZero() {
			if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
				current.Price = domain.PriceFromAmount(amount)
			}
			continue
		}
		if containsAny(lower, availabilityKeywords) && current.Availability == "" {
			current.Availability = line
			continue
		}
		if containsAny(lower, dealKeywords) && current.Deals == "" {
			current.Deals = line
			continue
		}
		if m := sizeRegex.FindStringSubmatch(line); m != nil && current.Size == "" {
			current.Size = m[1]
			continue
		}
		if m := imageURLRegex.FindString(line); m != "" && current.ImageURL == "" {
			current.ImageURL = m
			continue
		}
	}
	flush()
	return products
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// dedupeStores keeps the first record per store id.
func dedupeStores(stores []domain.StoreRecord) []domain.StoreRecord {
	seen := make(map[string]bool, len(stores))
	out := stores[:0]
	for _, s := range stores {
		if seen[s.StoreID] {
			continue
		}
		seen[s.StoreID] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// dedupeProducts keeps the first record per lowercased name.
func dedupeProducts(products []domain.ProductRecord) []domain.ProductRecord {
	seen := make(map[string]bool, len(products))
	out := products[:0]
	for _, p := range products {
		key := strings.ToLower(p.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
