package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Cache keys are purpose-namespaced and content-addressed: logically identical
// requests hash to the same key regardless of input ordering.

// StoresKey is the cache key for store discovery in a zipcode.
func StoresKey(zipcode string) string {
	return "stores:zip:" + zipcode
}

// ProductsKey is the cache key for one aggregated product search. The store-id
// set is sorted before hashing so caller ordering never splits the key space.
func ProductsKey(zipcode, query string, storeIDs []string, enhance bool) string {
	qhash := sha1Hex(normalizeQuery(query))

	ids := "__none__"
	if len(storeIDs) > 0 {
		sorted := make([]string, len(storeIDs))
		copy(sorted, storeIDs)
		sort.Strings(sorted)
		ids = strings.Join(sorted, ",")
	}
	setHash := sha1Hex(ids)

	enh := "0"
	if enhance {
		enh = "1"
	}
	return "products:zip:" + zipcode + ":q:" + qhash + ":stores:" + setHash + ":enh:" + enh
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(query))), " ")
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
