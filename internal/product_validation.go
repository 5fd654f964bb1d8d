package internal

import (
	"fmt"

	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

// ProductValidation is the renderable subset of a payload's cards
type ProductValidation struct {
	Valid   []ProductCardData
	Dropped int
}

// Summary is the count line shown under a product grid
func (v ProductValidation) Summary() string {
	if len(v.Valid) == 0 {
		if v.Dropped > 0 {
			return "Sản phẩm không hợp lệ"
		}
		return "Không có sản phẩm nào để hiển thị"
	}
	line := fmt.Sprintf("Hiển thị %d sản phẩm", len(v.Valid))
	if v.Dropped > 0 {
		line += fmt.Sprintf(" (%d sản phẩm không hợp lệ đã bị loại bỏ)", v.Dropped)
	}
	return line
}

// ValidateProducts keeps cards that have an id, a name and a price.
func ValidateProducts(cards []ProductCardData) ProductValidation {
	v := ProductValidation{Valid: make([]ProductCardData, 0, len(cards))}
	for _, card := range cards {
		if card.ID == "" || card.Name == "" || !card.Price.present() {
			v.Dropped++
			continue
		}
		v.Valid = append(v.Valid, card)
	}
	if v.Dropped > 0 {
		metrics.ProductsDropped.Add(float64(v.Dropped))
		LogDebug("Dropped %d invalid product cards", v.Dropped)
	}
	return v
}

func (p ProductPrice) present() bool {
	return p.Current != 0 || p.Original != 0 || p.Currency != ""
}
