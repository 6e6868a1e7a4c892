package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineSource is what a cart or order line points at: either a bare product or
// a specific variant of it. Resolving it collapses the variant-falls-back-to-
// product rules into one place.
type LineSource struct {
	Product *Product
	Variant *ProductVariant
}

// LineInfo is the normalized view of a line source used for display, pricing
// and inventory checks.
type LineInfo struct {
	Name           string
	SKU            string
	Price          decimal.Decimal
	InventoryCount int
}

func (s LineSource) Resolve() LineInfo {
	if s.Variant == nil {
		return LineInfo{
			Name:           s.Product.Name,
			SKU:            s.Product.SKU,
			Price:          s.Product.Price,
			InventoryCount: s.Product.InventoryCount,
		}
	}

	price := s.Variant.Price
	if price.IsZero() {
		price = s.Product.Price
	}
	return LineInfo{
		Name:           VariantDisplayName(s.Product.Name, s.Variant.Name, s.Variant.Color, s.Variant.Size, s.Variant.Style),
		SKU:            s.Variant.SKU,
		Price:          price,
		InventoryCount: s.Variant.InventoryCount,
	}
}

// VariantDisplayName renders "<product> - <attributes>" from whichever of the
// variant's attributes are set, falling back to the variant name and finally
// the bare product name.
func VariantDisplayName(productName, variantName, color, size, style string) string {
	attrs := make([]string, 0, 3)
	for _, a := range []string{color, size, style} {
		if a != "" {
			attrs = append(attrs, a)
		}
	}
	if len(attrs) > 0 {
		return productName + " - " + strings.Join(attrs, ", ")
	}
	if variantName != "" {
		return productName + " - " + variantName
	}
	return productName
}
