// Package serper implements the secondary shopping-search source, which
// returns already-structured product rows and needs no text parsing.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cartlens/backend/internal/domain"
)

const defaultBaseURL = "https://google.serper.dev/search"

var priceNumberRegex = regexp.MustCompile(`\d+\.?\d*`)

// DefaultStoreDomains maps canonical store ids to the retail domains their
// shopping results should come from. Injected as configuration so deployments
// can extend it without code changes.
var DefaultStoreDomains = map[string]string{
	"target":      "target.com",
	"walmart":     "walmart.com",
	"whole_foods": "wholefoodsmarket.com",
	"aldi":        "aldi.us",
	"costco":      "costco.com",
	"kroger":      "kroger.com",
}

// Client calls the shopping-search API.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	storeDomains map[string]string
	limiter      *rate.Limiter
	log          *zap.Logger
}

// NewClient creates a shopping-search client. An empty apiKey yields a client
// that reports itself unavailable.
func NewClient(apiKey, baseURL string, storeDomains map[string]string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if len(storeDomains) == 0 {
		storeDomains = DefaultStoreDomains
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		apiKey:       apiKey,
		baseURL:      baseURL,
		storeDomains: storeDomains,
		limiter:      rate.NewLimiter(rate.Limit(5), 10),
		log:          log,
	}
}

// Available reports whether credentials are configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	Query    string `json:"q"`
	Country  string `json:"gl"`
	Language string `json:"hl"`
	Num      int    `json:"num"`
	Type     string `json:"type"`
}

type shoppingResult struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Link     string `json:"link"`
	ImageURL string `json:"imageUrl"`
	Source   string `json:"source"`
}

type searchResponse struct {
	Shopping []shoppingResult `json:"shopping"`
}

// SearchShopping runs a shopping search for query, scoped to the given store's
// retail domain when one is configured. Results from other domains are
// filtered out so one store's offers never leak into another's.
func (c *Client) SearchShopping(ctx context.Context, query, storeID, location string) ([]domain.ProductRecord, error) {
	if !c.Available() {
		return nil, domain.ErrSourceUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}

	expectedDomain := c.storeDomains[strings.ToLower(storeID)]
	searchQuery := query
	if expectedDomain != "" {
		searchQuery = query + " site:" + expectedDomain
	} else if storeID != "" {
		searchQuery = query + " " + strings.ReplaceAll(storeID, "_", " ")
	}

	body, err := json.Marshal(searchRequest{
		Query:    searchQuery,
		Country:  "us",
		Language: "en",
		Num:      20,
		Type:     "shopping",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceFailure, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", domain.ErrSourceFailure, err)
	}

	return c.toRecords(parsed.Shopping, expectedDomain), nil
}

func (c *Client) toRecords(results []shoppingResult, expectedDomain string) []domain.ProductRecord {
	var records []domain.ProductRecord
	for _, r := range results {
		if r.Title == "" {
			continue
		}
		if expectedDomain != "" && !linkMatchesDomain(r.Link, expectedDomain) {
			continue
		}
		records = append(records, domain.ProductRecord{
			Name:         r.Title,
			Price:        extractPrice(r.Price),
			Availability: "In Stock",
			ImageURL:     r.ImageURL,
			ProductURL:   r.Link,
		})
	}
	return records
}

func linkMatchesDomain(link, domainName string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.Contains(u.Host, domainName)
}

// extractPrice pulls the first numeric amount out of a price string like
// "$5.49" or "5,49 USD", keeping the raw text when nothing numeric is found.
func extractPrice(s string) domain.Price {
	if s == "" {
		return domain.Price{}
	}
	cleaned := strings.ReplaceAll(s, ",", "")
	if m := priceNumberRegex.FindString(cleaned); m != "" {
		if amount, err := strconv.ParseFloat(m, 64); err == nil {
			return domain.PriceFromAmount(amount)
		}
	}
	return domain.PriceFromText(s)
}
