package domain

import (
	"github.com/utafrali/storefront/pkg/validator"
)

func init() {
	validator.RegisterValidation("price", IsValidPrice, "must be a non-negative price such as $19.99")
}

// ProductDescriptor is what the presentation layer hands to the stores.
// Size and Color are only meaningful to the cart; Collection only to the
// wishlist.
type ProductDescriptor struct {
	ProductID  int    `json:"product_id" validate:"gt=0"`
	Name       string `json:"name" validate:"required,max=200"`
	Price      string `json:"price" validate:"required,price"`
	Collection string `json:"collection" validate:"max=200"`
	Image      string `json:"image" validate:"omitempty,max=2048"`
	Size       string `json:"size,omitempty" validate:"max=32"`
	Color      string `json:"color,omitempty" validate:"max=32"`
}

// Validate checks the descriptor's fields.
func (d ProductDescriptor) Validate() error {
	return validator.Validate(d)
}
