package fee

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// RegisterValidators registers the fee validation tags and translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, "feefrequency", Frequencies...)
	core.RegisterEnumValidation(validate, translator, "vouchertype", VoucherTypes...)
	core.RegisterEnumValidation(validate, translator, "paymentmethod", PaymentMethods...)
}
