package repositories

import (
	"github.com/go-playground/validator/v10"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
)

var validate = validator.New()

// validateDoc checks a document against its struct tags before any write, so
// malformed data never reaches a collection. Field-level detail stays in the
// wrapped cause.
func validateDoc(doc any) error {
	if err := validate.Struct(doc); err != nil {
		return apperrors.Validation(err)
	}
	return nil
}
