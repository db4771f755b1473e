package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// WishlistEntry is a liked product. AddedAt is epoch milliseconds.
type WishlistEntry struct {
	ProductID  int             `json:"product_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Collection string          `json:"collection"`
	Image      string          `json:"image"`
	AddedAt    int64           `json:"added_at"`
}

// FindEntry returns the index of the entry for productID, or -1.
func FindEntry(items []WishlistEntry, productID int) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// SortCriterion selects a wishlist ordering.
type SortCriterion string

const (
	SortByDate  SortCriterion = "date"
	SortByPrice SortCriterion = "price"
	SortByName  SortCriterion = "name"
)

// ParseSortCriterion accepts "date", "price" or "name" (case-insensitive).
func ParseSortCriterion(s string) (SortCriterion, error) {
	switch c := SortCriterion(strings.ToLower(strings.TrimSpace(s))); c {
	case SortByDate, SortByPrice, SortByName:
		return c, nil
	default:
		return "", apperrors.InvalidInput("sort must be one of: date, price, name")
	}
}
