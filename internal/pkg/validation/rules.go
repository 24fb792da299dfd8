// Package validation holds identifier rules shared by request binding and the auth service.
package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Roll numbers and employee IDs, e.g. "2021CE045" or "ADMIN001"
	IdentifierPattern = `^[A-Za-z0-9][A-Za-z0-9/_-]{0,49}$`

	PhonePattern = `^\+?[0-9][0-9 -]{6,19}$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Identifier *regexp.Regexp
	Phone      *regexp.Regexp
}{
	Identifier: regexp.MustCompile(IdentifierPattern),
	Phone:      regexp.MustCompile(PhonePattern),
}

// NormalizeIdentifier trims and upper-cases a roll number or employee ID
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RegisterCustomValidators adds the "identifier" and "phone" tags to v
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Identifier.MatchString(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Phone.MatchString(fl.Field().String())
	})
}
