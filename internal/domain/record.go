package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawSourceResponse is one answer from the primary text source: free-form
// content plus whatever citation metadata the provider attached. It is parsed
// once and discarded, never persisted.
type RawSourceResponse struct {
	Content       string
	Citations     []string
	SearchResults []SearchResult
}

// SearchResult is a structured result row attached to a raw response.
type SearchResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// StoreRecord is one store parsed out of a raw text response.
type StoreRecord struct {
	StoreID   string   `json:"store_id"`
	StoreName string   `json:"store_name"`
	Address   string   `json:"address,omitempty"`
	Services  []string `json:"services,omitempty"`
	Website   string   `json:"website,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// ProductRecord is one product parsed out of a raw text response or returned
// directly by the shopping source.
type ProductRecord struct {
	Name         string `json:"name"`
	Brand        string `json:"brand,omitempty"`
	Price        Price  `json:"price"`
	Size         string `json:"size,omitempty"`
	Category     string `json:"category,omitempty"`
	Availability string `json:"availability,omitempty"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ProductURL   string `json:"product_url,omitempty"`
	Deals        string `json:"deals,omitempty"`
}

// Price holds either a parsed dollar amount or, when no amount could be
// extracted, the raw upstream text. Upstream price fields mix the two
// opportunistically and the degraded form is kept rather than rejected.
type Price struct {
	Amount float64
	Raw    string
	Valid  bool
}

// PriceFromAmount returns a numeric price.
func PriceFromAmount(amount float64) Price {
	return Price{Amount: amount, Valid: true}
}

// PriceFromText keeps the raw price text as-is.
func PriceFromText(raw string) Price {
	return Price{Raw: strings.TrimSpace(raw)}
}

// IsZero reports whether no price information is present at all.
func (p Price) IsZero() bool {
	return !p.Valid && p.Raw == ""
}

// String renders the numeric amount with a dollar sign, or the raw text.
func (p Price) String() string {
	if p.Valid {
		return "$" + strconv.FormatFloat(p.Amount, 'f', 2, 64)
	}
	return p.Raw
}

// MarshalJSON emits a JSON number for parsed prices, a string for raw text,
// and null when nothing is known.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Valid {
		return json.Marshal(p.Amount)
	}
	if p.Raw != "" {
		return json.Marshal(p.Raw)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a number, a string, or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*p = Price{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*p = Price{Raw: raw}
		return nil
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return err
	}
	*p = Price{Amount: amount, Valid: true}
	return nil
}
