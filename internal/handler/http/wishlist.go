package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	logger *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{logger: logger}
}

// AddWishlistItemRequest is the JSON request body for liking a product.
type AddWishlistItemRequest struct {
	ProductID  int    `json:"product_id" validate:"gt=0"`
	Name       string `json:"name" validate:"required,max=200"`
	Price      string `json:"price" validate:"required,price"`
	Collection string `json:"collection" validate:"max=200"`
	Image      string `json:"image" validate:"omitempty,max=2048"`
}

func (r AddWishlistItemRequest) descriptor() domain.ProductDescriptor {
	return domain.ProductDescriptor{
		ProductID:  r.ProductID,
		Name:       r.Name,
		Price:      r.Price,
		Collection: r.Collection,
		Image:      r.Image,
	}
}

// SortRequest is the JSON request body for reordering the wishlist. By is
// parsed like the GET sort parameter: date, price or name, any case.
type SortRequest struct {
	By string `json:"by" validate:"required"`
}

// WishlistView is the wishlist as returned to clients.
type WishlistView struct {
	Items []domain.WishlistEntry `json:"items"`
	Count int                    `json:"count"`
}

func newWishlistView(items []domain.WishlistEntry) WishlistView {
	return WishlistView{Items: items, Count: len(items)}
}

// MembershipView answers whether a product is in the wishlist.
type MembershipView struct {
	ProductID  int  `json:"product_id"`
	InWishlist bool `json:"in_wishlist"`
}

// GetWishlist handles GET /api/v1/sessions/{sessionID}/wishlist. The
// optional sort query parameter orders the response without changing the
// stored order.
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	sortParam := r.URL.Query().Get("sort")
	if sortParam == "" {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newWishlistView(s.Wishlist.Items())})
		return
	}

	by, err := domain.ParseSortCriterion(sortParam)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	items, err := s.Wishlist.Sorted(by)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newWishlistView(items)})
}

// AddItem handles POST /api/v1/sessions/{sessionID}/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var req AddWishlistItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := s.Wishlist.AddItem(r.Context(), req.descriptor()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newWishlistView(s.Wishlist.Items())})
}

// RemoveItem handles DELETE /api/v1/sessions/{sessionID}/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	s.Wishlist.RemoveItem(r.Context(), id)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newWishlistView(s.Wishlist.Items())})
}

// Contains handles GET /api/v1/sessions/{sessionID}/wishlist/items/{productId}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MembershipView{ProductID: id, InWishlist: s.Wishlist.IsInWishlist(id)},
	})
}

// MoveToTop handles POST /api/v1/sessions/{sessionID}/wishlist/items/{productId}/top
func (h *WishlistHandler) MoveToTop(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	s.Wishlist.MoveToTop(r.Context(), id)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newWishlistView(s.Wishlist.Items())})
}

// Sort handles POST /api/v1/sessions/{sessionID}/wishlist/sort
func (h *WishlistHandler) Sort(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var req SortRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	by, err := domain.ParseSortCriterion(req.By)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := s.Wishlist.Sort(r.Context(), by); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newWishlistView(s.Wishlist.Items())})
}

// ClearWishlist handles DELETE /api/v1/sessions/{sessionID}/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.Wishlist.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
