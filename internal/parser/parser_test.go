package parser

import (
	"strings"
	"testing"
)

func TestParseStores(t *testing.T) {
	t.Run("parses well-formed store sections", func(t *testing.T) {
		text := `STORE: Giant Eagle
ADDRESS: 123 Main Street, Pittsburgh, PA 15213
SERVICES: delivery, pickup, curbside, in-store
WEBSITE: https://www.gianteagle.com
STATUS: open

STORE: Whole Foods Market
ADDRESS: 456 Liberty Avenue, Pittsburgh, PA 15222
SERVICES: delivery, pickup
WEBSITE: https://www.wholefoodsmarket.com
STATUS: open`

		stores := ParseStores(text)
		if len(stores) != 2 {
			t.Fatalf("len(stores) = %d, want 2", len(stores))
		}

		first := stores[0]
		if first.StoreID != "giant_eagle" {
			t.Errorf("StoreID = %s, want giant_eagle", first.StoreID)
		}
		if first.StoreName != "Giant Eagle" {
			t.Errorf("StoreName = %s, want Giant Eagle", first.StoreName)
		}
		if first.Address != "123 Main Street, Pittsburgh, PA 15213" {
			t.Errorf("Address = %s", first.Address)
		}
		if len(first.Services) != 4 {
			t.Errorf("len(Services) = %d, want 4", len(first.Services))
		}
		if first.Status != "open" {
			t.Errorf("Status = %s, want open", first.Status)
		}

		if stores[1].StoreID != "whole_foods_market" {
			t.Errorf("StoreID = %s, want whole_foods_market", stores[1].StoreID)
		}
	})

	t.Run("skips placeholder template echoes", func(t *testing.T) {
		text := `STORE: Wegmans
ADDRESS: [Complete street address with city, state, zip]
SERVICES: [comma-separated list: delivery, pickup, curbside, in-store]
WEBSITE: N/A
STATUS: open`

		stores := ParseStores(text)
		if len(stores) != 1 {
			t.Fatalf("len(stores) = %d, want 1", len(stores))
		}
		if stores[0].Address != "" {
			t.Errorf("Address = %q, want empty for placeholder", stores[0].Address)
		}
		if len(stores[0].Services) != 0 {
			t.Errorf("Services = %v, want empty for placeholder", stores[0].Services)
		}
		if stores[0].Website != "" {
			t.Errorf("Website = %q, want empty for N/A", stores[0].Website)
		}
	})

	t.Run("defaults status to active when absent", func(t *testing.T) {
		stores := ParseStores("STORE: ALDI\nADDRESS: 789 Forbes Avenue, Pittsburgh, PA 15213")
		if len(stores) != 1 {
			t.Fatalf("len(stores) = %d, want 1", len(stores))
		}
		if stores[0].Status != "active" {
			t.Errorf("Status = %s, want active", stores[0].Status)
		}
	})

	t.Run("filters unknown services", func(t *testing.T) {
		stores := ParseStores("STORE: Wegmans\nSERVICES: delivery, teleportation, pickup")
		if len(stores) != 1 {
			t.Fatalf("len(stores) = %d, want 1", len(stores))
		}
		want := []string{"delivery", "pickup"}
		if len(stores[0].Services) != len(want) {
			t.Fatalf("Services = %v, want %v", stores[0].Services, want)
		}
		for i, s := range want {
			if stores[0].Services[i] != s {
				t.Errorf("Services[%d] = %s, want %s", i, stores[0].Services[i], s)
			}
		}
	})

	t.Run("falls back to known store names in prose", func(t *testing.T) {
		text := "Several grocery options serve this area, including Wegmans on Main Street and a Trader Joe's near the park."
		stores := ParseStores(text)
		if len(stores) != 2 {
			t.Fatalf("len(stores) = %d, want 2: %v", len(stores), stores)
		}
		ids := map[string]bool{}
		for _, s := range stores {
			ids[s.StoreID] = true
		}
		if !ids["wegmans"] || !ids["trader_joes"] {
			t.Errorf("ids = %v, want wegmans and trader_joes", ids)
		}
	})

	t.Run("dedupes by store id keeping first", func(t *testing.T) {
		text := `STORE: Giant Eagle
ADDRESS: 123 Main Street, Pittsburgh, PA 15213

STORE: Giant Eagle
ADDRESS: 999 Other Road, Pittsburgh, PA 15217`

		stores := ParseStores(text)
		if len(stores) != 1 {
			t.Fatalf("len(stores) = %d, want 1", len(stores))
		}
		if stores[0].Address != "123 Main Street, Pittsburgh, PA 15213" {
			t.Errorf("Address = %s, want the first record kept", stores[0].Address)
		}
	})

	t.Run("never fails on garbage input", func(t *testing.T) {
		inputs := []string{
			"",
			"   \n\n\t  ",
			"STORE:",
			"STORE: [Store Name]",
			strings.Repeat("::::", 1000),
			"{\"not\": \"the format we asked for\"}",
		}
		for _, input := range inputs {
			stores := ParseStores(input)
			if len(stores) != 0 {
				t.Errorf("ParseStores(%q) = %v, want empty", input, stores)
			}
		}
	})
}

func TestParseProducts(t *testing.T) {
	t.Run("parses well-formed product sections", func(t *testing.T) {
		text := `PRODUCT: Oatly Oat Milk Original
BRAND: Oatly
PRICE: $4.99
SIZE: 64 oz
CATEGORY: Dairy Alternatives
AVAILABILITY: in stock
DESCRIPTION: Original oat milk, creamy and delicious
IMAGE_URL: https://target.scene7.com/is/image/Target/12345678
DEALS: Buy 2 get 1 free

PRODUCT: Silk Original Soy Milk
BRAND: Silk
PRICE: $3.49
SIZE: 59 oz
AVAILABILITY: limited`

		products := ParseProducts(text)
		if len(products) != 2 {
			t.Fatalf("len(products) = %d, want 2", len(products))
		}

		first := products[0]
		if first.Name != "Oatly Oat Milk Original" {
			t.Errorf("Name = %s", first.Name)
		}
		if first.Brand != "Oatly" {
			t.Errorf("Brand = %s, want Oatly", first.Brand)
		}
		if !first.Price.Valid || first.Price.Amount != 4.99 {
			t.Errorf("Price = %+v, want 4.99", first.Price)
		}
		if first.Size != "64 oz" {
			t.Errorf("Size = %s, want 64 oz", first.Size)
		}
		if first.ImageURL != "https://target.scene7.com/is/image/Target/12345678" {
			t.Errorf("ImageURL = %s", first.ImageURL)
		}
		if first.Deals != "Buy 2 get 1 free" {
			t.Errorf("Deals = %s", first.Deals)
		}

		second := products[1]
		if second.Availability != "limited" {
			t.Errorf("Availability = %s, want limited", second.Availability)
		}
	})

	t.Run("keeps raw text when price has no dollar amount", func(t *testing.T) {
		products := ParseProducts("PRODUCT: Chobani Greek Yogurt\nPRICE: Price not available")
		if len(products) != 1 {
			t.Fatalf("len(products) = %d, want 1", len(products))
		}
		p := products[0].Price
		if p.Valid {
			t.Errorf("Price.Valid = true, want false")
		}
		if p.Raw != "Price not available" {
			t.Errorf("Price.Raw = %q, want the raw text kept", p.Raw)
		}
	})

	t.Run("extracts dollar amount embedded in prose", func(t *testing.T) {
		products := ParseProducts("PRODUCT: Oatly Oat Milk\nPRICE: around $5.29 at most locations")
		if len(products) != 1 {
			t.Fatalf("len(products) = %d, want 1", len(products))
		}
		if !products[0].Price.Valid || products[0].Price.Amount != 5.29 {
			t.Errorf("Price = %+v, want 5.29", products[0].Price)
		}
	})

	t.Run("treats placeholder image URL as absent", func(t *testing.T) {
		products := ParseProducts("PRODUCT: Silk Almond Milk\nIMAGE_URL: N/A")
		if len(products) != 1 {
			t.Fatalf("len(products) = %d, want 1", len(products))
		}
		if products[0].ImageURL != "" {
			t.Errorf("ImageURL = %q, want empty", products[0].ImageURL)
		}
	})

	t.Run("recovers bare image URL from unmarked line", func(t *testing.T) {
		text := `PRODUCT: Oatly Oat Milk
PRICE: $4.99
https://images.example.com/oatly-64oz.jpg
DESCRIPTION: Creamy oat milk`

		products := ParseProducts(text)
		if len(products) != 1 {
			t.Fatalf("len(products) = %d, want 1", len(products))
		}
		if products[0].ImageURL != "https://images.example.com/oatly-64oz.jpg" {
			t.Errorf("ImageURL = %s, want the bare URL recovered", products[0].ImageURL)
		}
	})

	t.Run("explicit image URL wins over bare URL", func(t *testing.T) {
		text := `PRODUCT: Oatly Oat Milk
IMAGE_URL: https://cdn.example.com/official.png
https://images.example.com/other.jpg`

		products := ParseProducts(text)
		if len(products) != 1 {
			t.Fatalf("len(products) = %d, want 1", len(products))
		}
		if products[0].ImageURL != "https://cdn.example.com/official.png" {
			t.Errorf("ImageURL = %s, want the explicit field kept", products[0].ImageURL)
		}
	})

	t.Run("returns nothing for explicit no-results answer", func(t *testing.T) {
		products := ParseProducts("No products found matching your query at this store.")
		if len(products) != 0 {
			t.Errorf("len(products) = %d, want 0", len(products))
		}
	})

	t.Run("falls back to keyword scan for prose answers", func(t *testing.T) {
		text := `Oatly Oat Milk Original is widely stocked.
$4.99
in stock at most locations
64 oz

Silk Original Soymilk is another option.
$3.49
currently available`

		products := ParseProducts(text)
		if len(products) != 2 {
			t.Fatalf("len(products) = %d, want 2: %+v", len(products), products)
		}
		if !products[0].Price.Valid || products[0].Price.Amount != 4.99 {
			t.Errorf("Price = %+v, want 4.99", products[0].Price)
		}
		if products[0].Size != "64 oz" {
			t.Errorf("Size = %q, want 64 oz", products[0].Size)
		}
		if products[1].Availability == "" {
			t.Error("Availability empty, want the availability line captured")
		}
	})

	t.Run("dedupes by lowercased name keeping first", func(t *testing.T) {
		text := `PRODUCT: Oatly Oat Milk
PRICE: $4.99

PRODUCT: OATLY OAT MILK
PRICE: $6.99`

		products := ParseProducts(text)
		if len(products) != 1 {
			t.Fatalf("len(products) = %d, want 1", len(products))
		}
		if !products[0].Price.Valid || products[0].Price.Amount != 4.99 {
			t.Errorf("Price = %+v, want the first record kept", products[0].Price)
		}
	})

	t.Run("never fails on garbage input", func(t *testing.T) {
		inputs := []string{
			"",
			"\n\n\n",
			"PRODUCT:",
			"PRODUCT: [Product Name]\nPRICE: [Price with $ symbol]",
			strings.Repeat("$$$ ", 500),
		}
		for _, input := range inputs {
			products := ParseProducts(input)
			if len(products) != 0 {
				t.Errorf("ParseProducts(%q) = %v, want empty", input, products)
			}
		}
	})
}

func TestSlug(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Giant Eagle", "giant_eagle"},
		{"Trader Joe's", "trader_joes"},
		{"Stop & Shop", "stop_and_shop"},
		{"Hy-Vee", "hy_vee"},
		{"Whole Foods Market", "whole_foods_market"},
		{"  ALDI  ", "aldi"},
		{"Sam's Club", "sams_club"},
		{"7-Eleven", "7_eleven"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slug(tc.name); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}

	t.Run("is idempotent", func(t *testing.T) {
		for _, tc := range cases {
			once := Slug(tc.name)
			if twice := Slug(once); twice != once {
				t.Errorf("Slug(Slug(%q)) = %q, want %q", tc.name, twice, once)
			}
		}
	})
}
