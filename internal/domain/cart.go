package domain

import "github.com/shopspring/decimal"

// CartLineItem is one purchasable line in the cart.
type CartLineItem struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// LineKey identifies a cart line. Additions with an equal key merge.
type LineKey struct {
	ProductID int    `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Key returns the line's identity key.
func (i CartLineItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// Subtotal is UnitPrice × Quantity.
func (i CartLineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FindLine returns the index of the line with the given key, or -1.
func FindLine(items []CartLineItem, key LineKey) int {
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}

// CartTotal is the exact sum of every line's subtotal.
func CartTotal(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CartItemCount returns the sum of quantities.
func CartItemCount(items []CartLineItem) int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
