package usecase

import (
	"strings"

	"github.com/cartlens/backend/internal/domain"
)

// Retail product-page URL markers recognized in citation metadata.
const (
	targetPathMarker  = "target.com/p/"
	walmartPathMarker = "walmart.com/ip/"
	amazonPathMarker  = "amazon.com/dp/"
)

// minLinkMatchScore is the token-overlap threshold below which a citation URL
// is not attached to a product.
const minLinkMatchScore = 0.3

// EnrichProductLinks attaches real product-page URLs from the raw response's
// citation metadata to parsed products, matching by token overlap between the
// product name and the name embedded in the URL path. Target and Walmart
// matches also derive a CDN image URL when the record has none better.
func EnrichProductLinks(products []domain.ProductRecord, raw *domain.RawSourceResponse) []domain.ProductRecord {
	if raw == nil || len(products) == 0 {
		return products
	}
	candidates := collectProductURLs(raw)
	if len(candidates) == 0 {
		return products
	}

	for i := range products {
		name := strings.ToLower(products[i].Name)
		bestScore := 0.0
		bestURL := ""
		for urlName, url := range candidates {
			score := tokenOverlap(name, urlName)
			if score > bestScore && score > minLinkMatchScore {
				bestScore = score
				bestURL = url
			}
		}
		if bestURL == "" {
			continue
		}
		products[i].ProductURL = bestURL
		if img := imageURLForProductPage(bestURL); img != "" {
			products[i].ImageURL = img
		}
	}
	return products
}

// collectProductURLs gathers retail product-page URLs from citations and
// search results, keyed by the lowercased product name embedded in each URL.
func collectProductURLs(raw *domain.RawSourceResponse) map[string]string {
	urls := make(map[string]string)
	add := func(url string) {
		if !strings.Contains(url, targetPathMarker) &&
			!strings.Contains(url, walmartPathMarker) &&
			!strings.Contains(url, amazonPathMarker) {
			return
		}
		if name := productNameFromURL(url); name != "" {
			urls[strings.ToLower(name)] = url
		}
	}
	for _, c := range raw.Citations {
		add(c)
	}
	for _, r := range raw.SearchResults {
		add(r.URL)
	}
	return urls
}

// productNameFromURL recovers a human-readable product name from a retail
// product-page URL path.
func productNameFromURL(url string) string {
	switch {
	case strings.Contains(url, targetPathMarker):
		// target.com/p/product-name/-/A-123456
		part := afterMarker(url, "/p/")
		part = strings.SplitN(part, "/-/", 2)[0]
		return strings.ReplaceAll(part, "-", " ")
	case strings.Contains(url, walmartPathMarker):
		// walmart.com/ip/product-name/123456
		part := afterMarker(url, "/ip/")
		part = strings.SplitN(part, "/", 2)[0]
		return strings.ReplaceAll(part, "-", " ")
	case strings.Contains(url, amazonPathMarker):
		// Only the ASIN is recoverable from Amazon URLs.
		asin := strings.SplitN(afterMarker(url, "/dp/"), "/", 2)[0]
		if asin == "" {
			return ""
		}
		return "amazon product " + asin
	}
	return ""
}

func afterMarker(url, marker string) string {
	if idx := strings.Index(url, marker); idx >= 0 {
		return url[idx+len(marker):]
	}
	return ""
}

// imageURLForProductPage derives a CDN image URL from a Target or Walmart
// product-page URL, or returns "" when none can be built.
func imageURLForProductPage(url string) string {
	if strings.Contains(url, "target.com") {
		if idx := strings.Index(url, "/A-"); idx >= 0 {
			id := strings.SplitN(url[idx+len("/A-"):], "/", 2)[0]
			if id != "" {
				return "https://target.scene7.com/is/image/Target/" + id + "?wid=1200&hei=1200&qlt=80&fmt=webp"
			}
		}
	}
	if strings.Contains(url, walmartPathMarker) {
		rest := afterMarker(url, "/ip/")
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) >= 2 && parts[1] != "" {
			return "https://i5.walmartimages.com/asr/" + parts[1] + ".jpeg"
		}
	}
	return ""
}

// tokenOverlap scores two names by shared words over the larger word set.
func tokenOverlap(a, b string) float64 {
	aSet := tokenSet(a)
	bSet := tokenSet(b)
	if len(aSet) == 0 || len(bSet) == 0 {
		return 0
	}
	common := 0
	for t := range aSet {
		if bSet[t] {
			common++
		}
	}
	denom := len(aSet)
	if len(bSet) > denom {
		denom = len(bSet)
	}
	return float64(common) / float64(denom)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
