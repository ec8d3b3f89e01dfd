package validation

import (
	"regexp"

	validatorv10 "github.com/go-playground/validator/v10"
)

// accountNamePattern matches the names the account factory accepts: 1-50
// characters, letters, digits, dots, dashes and spaces, starting with a letter
// or digit.
var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]{0,49}$`)

// New returns a configured validator with the account_name rule registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	_ = v.RegisterValidation("account_name", func(fl validatorv10.FieldLevel) bool {
		return accountNamePattern.MatchString(fl.Field().String())
	})

	return v
}
