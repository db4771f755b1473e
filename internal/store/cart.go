package store

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/persist"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// CartStore is an ordered set of line items keyed by (product, size, color).
// Lines keep insertion order and always have a quantity of at least one.
type CartStore struct {
	base
	items []domain.CartLineItem
}

// NewCartStore restores the cart persisted under key (persist.CartKey when
// empty) and returns the store. A missing, outdated or unreadable snapshot
// yields an empty cart.
func NewCartStore(ctx context.Context, kv repository.KeyValueStore, key string, opts ...Option) *CartStore {
	if key == "" {
		key = persist.CartKey
	}
	s := &CartStore{
		base: base{
			kv:      kv,
			key:     key,
			version: persist.CartVersion,
			name:    storeCart,
			opts:    buildOptions(opts),
		},
	}
	s.items = restore[domain.CartLineItem](ctx, &s.base)
	return s
}

func (s *CartStore) save(ctx context.Context) error {
	return persist.Save(ctx, s.kv, s.key, s.version, s.items)
}

func (s *CartStore) updated() []Event {
	return []Event{{
		Type:      EventCartUpdated,
		ItemCount: domain.CartItemCount(s.items),
		Total:     domain.CartTotal(s.items),
	}}
}

// AddItem adds one unit of the described product variant. An existing line
// with the same key is incremented; otherwise a line with quantity 1 is
// appended.
func (s *CartStore) AddItem(ctx context.Context, d domain.ProductDescriptor) error {
	if err := d.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	price, err := domain.ParsePrice(d.Price)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	key := domain.LineKey{ProductID: d.ProductID, Size: d.Size, Color: d.Color}
	var quantity int

	s.mutate(ctx, "add", func() (bool, []Event) {
		if i := domain.FindLine(s.items, key); i >= 0 {
			s.items[i].Quantity++
			quantity = s.items[i].Quantity
		} else {
			s.items = append(s.items, domain.CartLineItem{
				ProductID: d.ProductID,
				Name:      d.Name,
				Image:     d.Image,
				UnitPrice: price,
				Quantity:  1,
				Size:      d.Size,
				Color:     d.Color,
			})
			quantity = 1
		}
		return true, s.updated()
	}, s.save)

	s.log(ctx).InfoContext(ctx, "item added to cart",
		slog.Int("product_id", key.ProductID),
		slog.String("size", key.Size),
		slog.String("color", key.Color),
		slog.Int("quantity", quantity),
	)
	return nil
}

// RemoveItem removes the line with the given key. Unknown keys are ignored.
func (s *CartStore) RemoveItem(ctx context.Context, key domain.LineKey) {
	s.mutate(ctx, "remove", func() (bool, []Event) {
		i := domain.FindLine(s.items, key)
		if i < 0 {
			return false, nil
		}
		s.items = slices.Delete(s.items, i, i+1)
		return true, s.updated()
	}, s.save)
}

// RemoveProduct removes every line of productID regardless of variant.
func (s *CartStore) RemoveProduct(ctx context.Context, productID int) {
	s.mutate(ctx, "remove_product", func() (bool, []Event) {
		before := len(s.items)
		s.items = slices.DeleteFunc(s.items, func(item domain.CartLineItem) bool {
			return item.ProductID == productID
		})
		if len(s.items) == before {
			return false, nil
		}
		return true, s.updated()
	}, s.save)
}

// UpdateQuantity sets the quantity of the line with the given key. Zero
// removes the line. Negative quantities are rejected without changing
// anything. Unknown keys are ignored.
func (s *CartStore) UpdateQuantity(ctx context.Context, key domain.LineKey, quantity int) error {
	if quantity < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}

	s.mutate(ctx, "update_quantity", func() (bool, []Event) {
		i := domain.FindLine(s.items, key)
		if i < 0 {
			return false, nil
		}
		if quantity == 0 {
			s.items = slices.Delete(s.items, i, i+1)
		} else {
			s.items[i].Quantity = quantity
		}
		return true, s.updated()
	}, s.save)
	return nil
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context) {
	s.mutate(ctx, "clear", func() (bool, []Event) {
		s.items = []domain.CartLineItem{}
		return true, []Event{{Type: EventCartCleared}}
	}, s.save)

	s.log(ctx).InfoContext(ctx, "cart cleared")
}

// Items returns a copy of the lines in insertion order.
func (s *CartStore) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Total is the exact sum of unit price × quantity, computed on each call.
func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotal(s.items)
}

// ItemCount is the sum of quantities.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartItemCount(s.items)
}
