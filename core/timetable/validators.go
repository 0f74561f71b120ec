package timetable

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// RegisterValidators registers the timetable validation tags and translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, "weekday",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday")
}
