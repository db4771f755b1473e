package store

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/text/collate"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/persist"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// WishlistStore is an ordered set of liked products keyed by product ID.
// New entries are appended; MoveToTop and Sort reorder.
type WishlistStore struct {
	base
	items []domain.WishlistEntry
}

// NewWishlistStore restores the wishlist persisted under key
// (persist.WishlistKey when empty).
func NewWishlistStore(ctx context.Context, kv repository.KeyValueStore, key string, opts ...Option) *WishlistStore {
	if key == "" {
		key = persist.WishlistKey
	}
	s := &WishlistStore{
		base: base{
			kv:      kv,
			key:     key,
			version: persist.WishlistVersion,
			name:    storeWishlist,
			opts:    buildOptions(opts),
		},
	}
	s.items = restore[domain.WishlistEntry](ctx, &s.base)
	return s
}

func (s *WishlistStore) save(ctx context.Context) error {
	return persist.Save(ctx, s.kv, s.key, s.version, s.items)
}

func (s *WishlistStore) now() int64 {
	return s.opts.clock().UnixMilli()
}

// AddItem appends the product stamped with the current time. Adding a
// product that is already present changes nothing and emits no event.
func (s *WishlistStore) AddItem(ctx context.Context, d domain.ProductDescriptor) error {
	if err := d.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	price, err := domain.ParsePrice(d.Price)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}

	var added bool
	s.mutate(ctx, "add", func() (bool, []Event) {
		if domain.FindEntry(s.items, d.ProductID) >= 0 {
			return false, nil
		}
		s.items = append(s.items, domain.WishlistEntry{
			ProductID:  d.ProductID,
			Name:       d.Name,
			UnitPrice:  price,
			Collection: d.Collection,
			Image:      d.Image,
			AddedAt:    s.now(),
		})
		added = true
		return true, []Event{{
			Type:      EventWishlistItemAdded,
			ProductID: d.ProductID,
			Name:      d.Name,
			ItemCount: len(s.items),
		}}
	}, s.save)

	if added {
		s.log(ctx).InfoContext(ctx, "item added to wishlist", slog.Int("product_id", d.ProductID))
	}
	return nil
}

// RemoveItem removes productID. An event is emitted only when the product
// was present.
func (s *WishlistStore) RemoveItem(ctx context.Context, productID int) {
	s.mutate(ctx, "remove", func() (bool, []Event) {
		i := domain.FindEntry(s.items, productID)
		if i < 0 {
			return false, nil
		}
		name := s.items[i].Name
		s.items = slices.Delete(s.items, i, i+1)
		return true, []Event{{
			Type:      EventWishlistItemRemoved,
			ProductID: productID,
			Name:      name,
			ItemCount: len(s.items),
		}}
	}, s.save)
}

// IsInWishlist reports whether productID is present.
func (s *WishlistStore) IsInWishlist(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FindEntry(s.items, productID) >= 0
}

// Clear empties the wishlist. The cleared event fires even when it was
// already empty.
func (s *WishlistStore) Clear(ctx context.Context) {
	s.mutate(ctx, "clear", func() (bool, []Event) {
		s.items = []domain.WishlistEntry{}
		return true, []Event{{Type: EventWishlistCleared}}
	}, s.save)

	s.log(ctx).InfoContext(ctx, "wishlist cleared")
}

// MoveToTop moves productID to the front and re-stamps it so that its
// AddedAt is strictly greater than before. Unknown products are ignored.
func (s *WishlistStore) MoveToTop(ctx context.Context, productID int) {
	s.mutate(ctx, "move_to_top", func() (bool, []Event) {
		i := domain.FindEntry(s.items, productID)
		if i < 0 {
			return false, nil
		}
		entry := s.items[i]
		entry.AddedAt = max(s.now(), entry.AddedAt+1)
		s.items = slices.Delete(s.items, i, i+1)
		s.items = slices.Insert(s.items, 0, entry)
		return true, []Event{{
			Type:      EventWishlistReordered,
			ProductID: productID,
			Name:      entry.Name,
			ItemCount: len(s.items),
		}}
	}, s.save)
}

func (s *WishlistStore) comparator(by domain.SortCriterion) (func(a, b domain.WishlistEntry) int, error) {
	switch by {
	case domain.SortByDate:
		return func(a, b domain.WishlistEntry) int {
			switch {
			case a.AddedAt > b.AddedAt:
				return -1
			case a.AddedAt < b.AddedAt:
				return 1
			}
			return 0
		}, nil
	case domain.SortByPrice:
		return func(a, b domain.WishlistEntry) int {
			return b.UnitPrice.Cmp(a.UnitPrice)
		}, nil
	case domain.SortByName:
		// Collators are not safe for concurrent use.
		c := collate.New(s.opts.language())
		return func(a, b domain.WishlistEntry) int {
			return c.CompareString(a.Name, b.Name)
		}, nil
	default:
		return nil, apperrors.InvalidInput("unknown sort criterion " + string(by))
	}
}

// Sort reorders the wishlist in place and persists the new order. Date and
// price sort newest and most expensive first; name sorts ascending using
// the collation of the current language. Ties keep their relative order.
func (s *WishlistStore) Sort(ctx context.Context, by domain.SortCriterion) error {
	cmp, err := s.comparator(by)
	if err != nil {
		return err
	}
	s.mutate(ctx, "sort", func() (bool, []Event) {
		slices.SortStableFunc(s.items, cmp)
		return true, []Event{{Type: EventWishlistReordered, ItemCount: len(s.items)}}
	}, s.save)
	return nil
}

// Sorted returns a copy of the entries ordered as Sort would order them,
// leaving the stored order untouched.
func (s *WishlistStore) Sorted(by domain.SortCriterion) ([]domain.WishlistEntry, error) {
	cmp, err := s.comparator(by)
	if err != nil {
		return nil, err
	}
	items := s.Items()
	slices.SortStableFunc(items, cmp)
	return items, nil
}

// Items returns a copy of the entries in their current order.
func (s *WishlistStore) Items() []domain.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Len returns the number of entries.
func (s *WishlistStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
