package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"agrispray/models"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

func init() {
	validate = validator.New()

	validate.RegisterValidation("account_role", validateAccountRole)
	validate.RegisterValidation("pincode", validatePincode)

	// Report json field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct validates a struct using validator tags
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, getValidationMessage(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func getValidationMessage(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if e.Kind() == reflect.Int {
			return fmt.Sprintf("%s must be at least %s", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", field, e.Param())
	case "max":
		if e.Kind() == reflect.Int {
			return fmt.Sprintf("%s must be at most %s", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters long", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "account_role":
		return fmt.Sprintf("%s must be one of: farmer, sprayer, admin", field)
	case "pincode":
		return fmt.Sprintf("%s must be a 6 digit postal code", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func validateAccountRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.RoleFarmer, models.RoleSprayer, models.RoleAdmin:
		return true
	}
	return false
}

func validatePincode(fl validator.FieldLevel) bool {
	return pincodeRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}
