package apis

import (
	"github.com/go-playground/validator/v10"
	"github.com/tansive/tansive-inventory/internal/common/httpx"
)

// validationError describes the first failed field of a request.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		f := verrs[0]
		return httpx.ErrInvalidRequest("invalid value for " + f.Field() + ": failed on " + f.Tag())
	}
	return httpx.ErrInvalidRequest()
}
