package accountdelivery

import (
	"github.com/go-playground/validator/v10"

	"github.com/Elmar465/SpendSnap/pkg/currencypkg"
)

// ValidCurrency validates whether the value is a three-letter uppercase
// currency code.
var ValidCurrency validator.Func = func(fl validator.FieldLevel) bool {
	if c, ok := fl.Field().Interface().(string); ok {
		return currencypkg.IsValidCode(c)
	}

	return false
}
