package http

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/usecase"
)

var zipcodePathRegex = regexp.MustCompile(`^\d{5}$`)

// Aggregator runs product aggregation calls.
type Aggregator interface {
	Aggregate(ctx context.Context, req usecase.AggregateRequest) (*domain.AggregateResponse, error)
}

// StoreFinder resolves stores serving a zipcode.
type StoreFinder interface {
	Discover(ctx context.Context, zipcode string) (*domain.StoreDiscoveryResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	aggregator Aggregator
	stores     StoreFinder
	primary    domain.PrimarySource
	shopping   domain.ShoppingSource
}

// NewHandler creates a new HTTP handler
func NewHandler(aggregator Aggregator, stores StoreFinder, primary domain.PrimarySource, shopping domain.ShoppingSource) *Handler {
	return &Handler{
		aggregator: aggregator,
		stores:     stores,
		primary:    primary,
		shopping:   shopping,
	}
}

// HealthCheck returns the health status of the API and of each search source
func (h *Handler) HealthCheck(c *gin.Context) {
	sources := gin.H{
		"perplexity_sonar": h.primary != nil && h.primary.Available(),
		"serper_shopping":  h.shopping != nil && h.shopping.Available(),
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cartlens-backend",
		"version": "1.0.0",
		"sources": sources,
	})
}

type aggregateRequest struct {
	Query   string   `json:"query"`
	Zipcode string   `json:"zipcode"`
	Stores  []string `json:"stores"`
	Enhance bool     `json:"enhance"`
}

// AggregateProducts handles product aggregation requests
func (h *Handler) AggregateProducts(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if h.primary == nil || !h.primary.Available() {
		if h.shopping == nil || !h.shopping.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no search sources are configured"})
			return
		}
	}

	result, err := h.aggregator.Aggregate(c.Request.Context(), usecase.AggregateRequest{
		Query:   req.Query,
		Zipcode: req.Zipcode,
		Stores:  req.Stores,
		Enhance: req.Enhance,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrSourceUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchStores handles store discovery requests for a zipcode. An optional
// "chains" query parameter (comma-separated store ids) filters the result.
func (h *Handler) SearchStores(c *gin.Context) {
	zipcode := c.Param("zipcode")
	if !zipcodePathRegex.MatchString(zipcode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zipcode must be 5 digits"})
		return
	}

	result, err := h.stores.Discover(c.Request.Context(), zipcode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store discovery failed"})
		return
	}

	if chains := c.Query("chains"); chains != "" {
		result = filterChains(result, chains)
	}

	c.JSON(http.StatusOK, result)
}

func filterChains(result *domain.StoreDiscoveryResult, chains string) *domain.StoreDiscoveryResult {
	wanted := make(map[string]bool)
	for _, chain := range strings.Split(chains, ",") {
		id := strings.ToLower(strings.TrimSpace(chain))
		if id != "" {
			wanted[id] = true
		}
	}

	filtered := make([]domain.StoreRecord, 0, len(result.Stores))
	for _, store := range result.Stores {
		if wanted[store.StoreID] {
			filtered = append(filtered, store)
		}
	}
	return &domain.StoreDiscoveryResult{
		Zipcode:     result.Zipcode,
		StoresFound: len(filtered),
		Stores:      filtered,
		Source:      result.Source,
	}
}
