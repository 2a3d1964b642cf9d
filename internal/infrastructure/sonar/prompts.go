package sonar

import "fmt"

// Prompt templates sent to the primary source. The parser's field vocabulary
// mirrors these templates exactly, so changes here must stay in sync with
// internal/parser.

// ProductSearchPrompt asks for product availability at one store in the
// PRODUCT/BRAND/PRICE section template.
func ProductSearchPrompt(query, storeName, location string) string {
	return fmt.Sprintf(`Find current product information for %q at %s in %s.

IMPORTANT: Include product image URLs when available. Search for actual product images from the store's website or product listings.

Return results in this EXACT format (one product per section, separated by blank lines):

PRODUCT: [Product Name]
BRAND: [Brand Name]
PRICE: [Price with $ symbol, or "Price not available"]
SIZE: [Size/quantity, e.g., "32 oz", "1 gallon", "12 pack"]
CATEGORY: [Product category, e.g., "Dairy", "Beverages", "Organic"]
AVAILABILITY: [in stock/out of stock/limited]
DESCRIPTION: [Brief product description]
IMAGE_URL: [Actual product image URL from store website, or "N/A" if not found]
DEALS: [Any current deals, discounts, or "None"]

Example format:
PRODUCT: Oatly Oat Milk Original
BRAND: Oatly
PRICE: $4.99
SIZE: 64 oz
CATEGORY: Dairy Alternatives
AVAILABILITY: in stock
DESCRIPTION: Original oat milk, creamy and delicious
IMAGE_URL: https://target.scene7.com/is/image/Target/12345678
DEALS: Buy 2 get 1 free

CRITICAL: Always include the IMAGE_URL field for each product. If you cannot find a specific image URL, use "N/A" but still include the IMAGE_URL field.

Focus on current availability, accurate pricing, and finding actual product images from the store's website.`, query, storeName, location)
}

// StoreDiscoveryPrompt asks for grocery stores serving a zipcode in the
// STORE/ADDRESS/SERVICES section template.
func StoreDiscoveryPrompt(zipcode string) string {
	return fmt.Sprintf(`Find all grocery stores and supermarkets serving zip code %s.

Return results in this EXACT format (one store per section, separated by blank lines):

STORE: [Store Name]
ADDRESS: [Complete street address with city, state, zip]
SERVICES: [comma-separated list: delivery, pickup, curbside, in-store]
WEBSITE: [full URL if available, or "N/A"]
STATUS: [open/closed/temporarily closed]

Example format:
STORE: Giant Eagle
ADDRESS: 123 Main Street, Pittsburgh, PA 15213
SERVICES: delivery, pickup, curbside, in-store
WEBSITE: https://www.gianteagle.com
STATUS: open

Focus on major chains: Walmart, Target, Kroger, Safeway, Publix, Whole Foods, Trader Joe's, ALDI, Wegmans, Giant Eagle, Meijer, Hy-Vee, Food Lion, Stop & Shop, and local grocery stores. Provide accurate addresses and current service availability.`, zipcode)
}
