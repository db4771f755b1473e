package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(logger *slog.Logger) *CartHandler {
	return &CartHandler{logger: logger}
}

// --- Request DTOs ---

// AddCartItemRequest is the JSON request body for adding a product variant
// to the cart.
type AddCartItemRequest struct {
	ProductID int    `json:"product_id" validate:"gt=0"`
	Name      string `json:"name" validate:"required,max=200"`
	Price     string `json:"price" validate:"required,price"`
	Image     string `json:"image" validate:"omitempty,max=2048"`
	Size      string `json:"size" validate:"max=32"`
	Color     string `json:"color" validate:"max=32"`
}

func (r AddCartItemRequest) descriptor() domain.ProductDescriptor {
	return domain.ProductDescriptor{
		ProductID: r.ProductID,
		Name:      r.Name,
		Price:     r.Price,
		Image:     r.Image,
		Size:      r.Size,
		Color:     r.Color,
	}
}

// UpdateQuantityRequest is the JSON request body for setting a line's
// quantity. Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	Items     []domain.CartLineItem `json:"items"`
	Total     decimal.Decimal       `json:"total"`
	ItemCount int                   `json:"item_count"`
}

func newCartView(cart *store.CartStore) CartView {
	items := cart.Items()
	return CartView{
		Items:     items,
		Total:     domain.CartTotal(items),
		ItemCount: domain.CartItemCount(items),
	}
}

// lineKey builds the line key from the {productId} path parameter and the
// size and color query parameters.
func lineKey(w http.ResponseWriter, r *http.Request) (domain.LineKey, bool) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return domain.LineKey{}, false
	}
	q := r.URL.Query()
	return domain.LineKey{ProductID: id, Size: q.Get("size"), Color: q.Get("color")}, true
}

// --- Handlers ---

// GetCart handles GET /api/v1/sessions/{sessionID}/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(s.Cart)})
}

// AddItem handles POST /api/v1/sessions/{sessionID}/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var req AddCartItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := s.Cart.AddItem(r.Context(), req.descriptor()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(s.Cart)})
}

// UpdateQuantity handles PUT /api/v1/sessions/{sessionID}/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	key, ok := lineKey(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := s.Cart.UpdateQuantity(r.Context(), key, *req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(s.Cart)})
}

// RemoveItem handles DELETE /api/v1/sessions/{sessionID}/cart/items/{productId}.
// With all=true every variant of the product is removed.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	key, ok := lineKey(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("all") == "true" {
		s.Cart.RemoveProduct(r.Context(), key.ProductID)
	} else {
		s.Cart.RemoveItem(r.Context(), key)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartView(s.Cart)})
}

// ClearCart handles DELETE /api/v1/sessions/{sessionID}/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.Cart.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
