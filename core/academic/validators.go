package academic

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// RegisterValidators registers the academic validation tags and translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, "studentstatus", StudentStatuses...)
	core.RegisterEnumValidation(validate, translator, "eventtype", EventTypes...)
	core.RegisterEnumValidation(validate, translator, "gender", Genders...)
}
