package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cartlens/backend/config"
	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// --- Fakes wired into the handler ---

type fakeAggregator struct {
	resp *domain.AggregateResponse
	err  error
	got  usecase.AggregateRequest
}

func (f *fakeAggregator) Aggregate(ctx context.Context, req usecase.AggregateRequest) (*domain.AggregateResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeStoreFinder struct {
	result *domain.StoreDiscoveryResult
	err    error
}

func (f *fakeStoreFinder) Discover(ctx context.Context, zipcode string) (*domain.StoreDiscoveryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSource struct{ available bool }

func (f fakeSource) Available() bool { return f.available }

func (f fakeSource) Query(ctx context.Context, prompt string) (*domain.RawSourceResponse, error) {
	return &domain.RawSourceResponse{}, nil
}

func (f fakeSource) SearchShopping(ctx context.Context, query, storeID, location string) ([]domain.ProductRecord, error) {
	return nil, nil
}

type routerOptions struct {
	aggregator *fakeAggregator
	stores     *fakeStoreFinder
	primary    bool
	shopping   bool
}

func setupTestRouter(opts routerOptions) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
	}
	if opts.aggregator == nil {
		opts.aggregator = &fakeAggregator{resp: &domain.AggregateResponse{}}
	}
	if opts.stores == nil {
		opts.stores = &fakeStoreFinder{result: &domain.StoreDiscoveryResult{}}
	}

	handler := NewHandler(opts.aggregator, opts.stores, fakeSource{opts.primary}, fakeSource{opts.shopping})
	return SetupRouter(cfg, handler, nil)
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("reports status and source availability", func(t *testing.T) {
		router := setupTestRouter(routerOptions{primary: true, shopping: false})

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "cartlens-backend" {
			t.Errorf("service = %v, want cartlens-backend", response["service"])
		}

		sources, ok := response["sources"].(map[string]interface{})
		if !ok {
			t.Fatalf("sources missing or wrong type: %v", response["sources"])
		}
		if sources["perplexity_sonar"] != true {
			t.Errorf("sources.perplexity_sonar = %v, want true", sources["perplexity_sonar"])
		}
		if sources["serper_shopping"] != false {
			t.Errorf("sources.serper_shopping = %v, want false", sources["serper_shopping"])
		}
	})
}

func TestAggregateEndpoint(t *testing.T) {
	t.Run("returns the aggregation result", func(t *testing.T) {
		agg := &fakeAggregator{resp: &domain.AggregateResponse{
			AggregateResult: domain.AggregateResult{
				Query:            "oat milk",
				Zipcode:          "15213",
				StoresConsidered: []string{"target"},
				Results: []domain.ProductGroup{
					{
						GroupKey: "oatly|oatly oat milk|64 oz",
						CanonicalProduct: domain.CanonicalProduct{
							Name: "Oatly Oat Milk", Brand: "Oatly", Size: "64 oz", Images: []string{},
						},
						Offers: []domain.Offer{
							{StoreID: "target", StoreName: "Target", Price: domain.PriceFromAmount(4.99), Source: []string{"perplexity_sonar"}},
						},
					},
				},
			},
		}}
		router := setupTestRouter(routerOptions{aggregator: agg, primary: true})

		payload := `{"query":"oat milk","zipcode":"15213","stores":["target"]}`
		req, _ := http.NewRequest("POST", "/api/v1/products/aggregate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if agg.got.Query != "oat milk" || agg.got.Zipcode != "15213" {
			t.Errorf("aggregator got %+v", agg.got)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		results, ok := response["results"].([]interface{})
		if !ok || len(results) != 1 {
			t.Fatalf("results = %v, want 1 group", response["results"])
		}
		group := results[0].(map[string]interface{})
		if group["group_key"] != "oatly|oatly oat milk|64 oz" {
			t.Errorf("group_key = %v", group["group_key"])
		}
		offers := group["offers"].([]interface{})
		offer := offers[0].(map[string]interface{})
		if offer["price"] != 4.99 {
			t.Errorf("price = %v (%T), want the number 4.99", offer["price"], offer["price"])
		}
	})

	t.Run("maps invalid requests to 400", func(t *testing.T) {
		agg := &fakeAggregator{err: domain.ErrInvalidRequest}
		router := setupTestRouter(routerOptions{aggregator: agg, primary: true})

		payload := `{"query":"","zipcode":"bad"}`
		req, _ := http.NewRequest("POST", "/api/v1/products/aggregate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		router := setupTestRouter(routerOptions{primary: true})

		req, _ := http.NewRequest("POST", "/api/v1/products/aggregate", strings.NewReader(`{not json}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 503 when no sources are configured", func(t *testing.T) {
		router := setupTestRouter(routerOptions{primary: false, shopping: false})

		payload := `{"query":"oat milk","zipcode":"15213"}`
		req, _ := http.NewRequest("POST", "/api/v1/products/aggregate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("maps unexpected failures to 500", func(t *testing.T) {
		agg := &fakeAggregator{err: domain.ErrSourceFailure}
		router := setupTestRouter(routerOptions{aggregator: agg, primary: true})

		payload := `{"query":"oat milk","zipcode":"15213"}`
		req, _ := http.NewRequest("POST", "/api/v1/products/aggregate", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

func TestStoresEndpoint(t *testing.T) {
	discovery := &domain.StoreDiscoveryResult{
		Zipcode:     "15213",
		StoresFound: 2,
		Stores: []domain.StoreRecord{
			{StoreID: "giant_eagle", StoreName: "Giant Eagle", Status: "open"},
			{StoreID: "whole_foods_market", StoreName: "Whole Foods Market", Status: "open"},
		},
		Source: "perplexity_sonar",
	}

	t.Run("returns discovered stores", func(t *testing.T) {
		router := setupTestRouter(routerOptions{stores: &fakeStoreFinder{result: discovery}})

		req, _ := http.NewRequest("GET", "/api/v1/stores/15213", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var result domain.StoreDiscoveryResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if result.StoresFound != 2 || len(result.Stores) != 2 {
			t.Errorf("result = %+v, want 2 stores", result)
		}
	})

	t.Run("filters by the chains parameter", func(t *testing.T) {
		router := setupTestRouter(routerOptions{stores: &fakeStoreFinder{result: discovery}})

		req, _ := http.NewRequest("GET", "/api/v1/stores/15213?chains=giant_eagle,kroger", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var result domain.StoreDiscoveryResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if result.StoresFound != 1 || len(result.Stores) != 1 {
			t.Fatalf("result = %+v, want the giant_eagle record only", result)
		}
		if result.Stores[0].StoreID != "giant_eagle" {
			t.Errorf("StoreID = %s, want giant_eagle", result.Stores[0].StoreID)
		}
	})

	t.Run("rejects malformed zipcodes", func(t *testing.T) {
		router := setupTestRouter(routerOptions{})

		for _, zip := range []string{"abc", "123", "123456"} {
			req, _ := http.NewRequest("GET", "/api/v1/stores/"+zip, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("zip %q: Status = %d, want %d", zip, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("maps discovery failures to 500", func(t *testing.T) {
		router := setupTestRouter(routerOptions{stores: &fakeStoreFinder{err: domain.ErrSourceFailure}})

		req, _ := http.NewRequest("GET", "/api/v1/stores/15213", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
