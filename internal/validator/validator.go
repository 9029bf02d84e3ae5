// Package validator provides custom validation functions for Gin's binding
// engine and the password policy shared by registration and password reset.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = `*/!@#$%^&(),.?":{}|<>`

// MinPasswordLength is the shortest acceptable password.
const MinPasswordLength = 8

// Password policy messages.
const (
	msgPasswordTooShort  = "Password must be at least 8 characters long."
	msgPasswordNoSpecial = "Password must contain at least one special character."
	msgPasswordNoDigit   = "Password must contain at least one number."
)

// Register registers all custom validators with the Gin binding engine and
// makes validation errors report JSON field names.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("kind", validateKind)
		_ = v.RegisterValidation("password_policy", validatePasswordPolicy)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validatePasswordPolicy(fl validator.FieldLevel) bool {
	return len(CheckPassword(fl.Field().String())) == 0
}

// CheckPassword returns every policy violation of password, or nil when it
// is acceptable.
func CheckPassword(password string) []string {
	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, msgPasswordTooShort)
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		problems = append(problems, msgPasswordNoSpecial)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		problems = append(problems, msgPasswordNoDigit)
	}
	return problems
}

var standalone = validator.New()

// CheckEmail returns the problems with email, or nil when it is well formed.
func CheckEmail(email string) []string {
	if strings.TrimSpace(email) == "" {
		return []string{"This field is required."}
	}
	if err := standalone.Var(email, "email,max=255"); err != nil {
		return []string{"Enter a valid email address."}
	}
	return nil
}

// FieldErrors turns binding errors into field → messages. It returns nil when
// err does not come from the validator.
func FieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if fe.Tag() == "password_policy" {
			fields[name] = append(fields[name], CheckPassword(fmt.Sprint(fe.Value()))...)
			continue
		}
		fields[name] = append(fields[name], message(fe))
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "kind":
		return `Must be "income" or "expense".`
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "numeric":
		return "A valid number is required."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
