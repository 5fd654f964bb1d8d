package chat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

// Authenticator reports whether a customer is signed in. The conversation
// never depends on it; the CLI shows it next to the cart.
type Authenticator interface {
	IsAuthenticated() bool
}

// Guest is the Authenticator for an anonymous customer
type Guest struct{}

func (Guest) IsAuthenticated() bool { return false }

// CartResult is the outcome of adding a product
type CartResult struct {
	Success bool
	Error   string
}

// CartSummary totals the current cart
type CartSummary struct {
	ItemCount  int
	TotalPrice float64
}

// Cart is the shopping cart product cards add to
type Cart interface {
	AddToCart(sku string, quantity int) (CartResult, error)
	GetCartSummary() CartSummary
}

// CartLine is one SKU in a MemoryCart
type CartLine struct {
	SKU      string
	Name     string
	Quantity int
	Price    float64
}

// MemoryCart is a Cart kept in process memory. Prices come from product
// cards the customer has seen.
type MemoryCart struct {
	mu      sync.Mutex
	lines   map[string]*CartLine
	catalog map[string]internal.ProductCardData
}

// NewMemoryCart creates an empty cart
func NewMemoryCart() *MemoryCart {
	return &MemoryCart{
		lines:   make(map[string]*CartLine),
		catalog: make(map[string]internal.ProductCardData),
	}
}

// Remember records the cards of a product payload so they can be added by SKU
func (c *MemoryCart) Remember(payload *internal.ProductDisplayPayload) {
	if payload == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, card := range payload.Products {
		if card.SKU != "" {
			c.catalog[card.SKU] = card
		}
	}
}

func (c *MemoryCart) AddToCart(sku string, quantity int) (CartResult, error) {
	if sku == "" || quantity <= 0 {
		return CartResult{Error: "SKU và số lượng phải hợp lệ"}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[sku]
	if !ok {
		card, known := c.catalog[sku]
		if !known {
			return CartResult{Error: fmt.Sprintf("Không tìm thấy sản phẩm %s", sku)}, nil
		}
		line = &CartLine{SKU: sku, Name: card.Name, Price: card.Price.Current}
		c.lines[sku] = line
	}
	line.Quantity += quantity
	internal.LogDebug("[CART] Added %d x %s", quantity, sku)
	return CartResult{Success: true}, nil
}

func (c *MemoryCart) GetCartSummary() CartSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s CartSummary
	for _, line := range c.lines {
		s.ItemCount += line.Quantity
		s.TotalPrice += float64(line.Quantity) * line.Price
	}
	return s
}

// Lines returns the cart contents ordered by SKU
func (c *MemoryCart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]CartLine, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].SKU < lines[j].SKU })
	return lines
}

// Clear empties the cart
func (c *MemoryCart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]*CartLine)
}
