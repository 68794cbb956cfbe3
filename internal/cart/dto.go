package cart

import (
	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/core/common/validation"
)

type AddItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (d *AddItemDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("product_id", d.ProductID).Required()
	validator.Field("quantity", int64(d.Quantity)).
		Required().
		MinInt(1, internal.ErrCodeInvalidQuantity)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateItemDTO struct {
	Quantity int `json:"quantity"`
}

func (d *UpdateItemDTO) Validate() error {
	if appErr := validation.ValidateQuantity(int64(d.Quantity)); appErr != nil {
		return appErr
	}
	return nil
}
