package validation

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the account password rule registered:
// at least one upper case letter, one lower case letter and one digit.
// Length is enforced separately with the min tag.
func New() *validator.Validate {
	validate := validator.New()

	// The tag name is load-bearing for request structs; registration
	// cannot fail for a valid static rule.
	if err := validate.RegisterValidation("password", passwordRule); err != nil {
		panic("failed to register password validation rule: " + err.Error())
	}

	return validate
}

func passwordRule(fl validator.FieldLevel) bool {
	var hasUpper, hasLower, hasDigit bool

	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	return hasUpper && hasLower && hasDigit
}
