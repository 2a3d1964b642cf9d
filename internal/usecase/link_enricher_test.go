package usecase

import (
	"strings"
	"testing"

	"github.com/cartlens/backend/internal/domain"
)

func TestEnrichProductLinks(t *testing.T) {
	t.Run("attaches matching target URL and derives an image", func(t *testing.T) {
		products := []domain.ProductRecord{
			{Name: "Oatly Oat Milk Original"},
		}
		raw := &domain.RawSourceResponse{
			Citations: []string{
				"https://www.target.com/p/oatly-oat-milk-original/-/A-54610741",
				"https://www.example.com/blog/best-oat-milks",
			},
		}

		got := EnrichProductLinks(products, raw)
		if got[0].ProductURL != "https://www.target.com/p/oatly-oat-milk-original/-/A-54610741" {
			t.Errorf("ProductURL = %s", got[0].ProductURL)
		}
		if !strings.HasPrefix(got[0].ImageURL, "https://target.scene7.com/is/image/Target/54610741") {
			t.Errorf("ImageURL = %s, want a scene7 URL for the item id", got[0].ImageURL)
		}
	})

	t.Run("attaches matching walmart URL from search results", func(t *testing.T) {
		products := []domain.ProductRecord{
			{Name: "Silk Original Soymilk"},
		}
		raw := &domain.RawSourceResponse{
			SearchResults: []domain.SearchResult{
				{URL: "https://www.walmart.com/ip/silk-original-soymilk/10291234", Title: "Silk Original Soymilk"},
			},
		}

		got := EnrichProductLinks(products, raw)
		if got[0].ProductURL != "https://www.walmart.com/ip/silk-original-soymilk/10291234" {
			t.Errorf("ProductURL = %s", got[0].ProductURL)
		}
		if got[0].ImageURL != "https://i5.walmartimages.com/asr/10291234.jpeg" {
			t.Errorf("ImageURL = %s", got[0].ImageURL)
		}
	})

	t.Run("skips URLs below the overlap threshold", func(t *testing.T) {
		products := []domain.ProductRecord{
			{Name: "Chobani Greek Yogurt Plain"},
		}
		raw := &domain.RawSourceResponse{
			Citations: []string{
				"https://www.target.com/p/garden-hose-fifty-foot-green/-/A-99999999",
			},
		}

		got := EnrichProductLinks(products, raw)
		if got[0].ProductURL != "" {
			t.Errorf("ProductURL = %s, want empty for unrelated URL", got[0].ProductURL)
		}
	})

	t.Run("ignores non-retail URLs entirely", func(t *testing.T) {
		products := []domain.ProductRecord{
			{Name: "Oatly Oat Milk"},
		}
		raw := &domain.RawSourceResponse{
			Citations: []string{
				"https://en.wikipedia.org/wiki/Oat_milk",
				"https://www.oatly.com/products/oat-milk",
			},
		}

		got := EnrichProductLinks(products, raw)
		if got[0].ProductURL != "" {
			t.Errorf("ProductURL = %s, want empty", got[0].ProductURL)
		}
	})

	t.Run("nil raw response is a no-op", func(t *testing.T) {
		products := []domain.ProductRecord{{Name: "Oatly Oat Milk"}}
		got := EnrichProductLinks(products, nil)
		if got[0].ProductURL != "" {
			t.Errorf("ProductURL = %s, want empty", got[0].ProductURL)
		}
	})
}

func TestTokenOverlap(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"oatly oat milk", "oatly oat milk", 1.0},
		{"oatly oat milk", "oatly oat milk original", 0.75},
		{"oatly oat milk", "garden hose green", 0.0},
		{"", "oatly", 0.0},
	}
	for _, tc := range cases {
		if got := tokenOverlap(tc.a, tc.b); got != tc.want {
			t.Errorf("tokenOverlap(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
