// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom validators on v.
func RegisterOn(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	_ = v.RegisterValidation("recurring_type", validateRecurringType)
	_ = v.RegisterValidation("notification_type", validateNotificationType)
}

// decimalValue exposes decimal amounts to numeric tags such as gt=0.
func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := d.Float64()
		return f
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		f, _ := d.Decimal.Float64()
		return f
	}
	return nil
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "quarterly", "yearly", "custom":
		return true
	}
	return false
}

func validateRecurringType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "yearly":
		return true
	}
	return false
}

func validateNotificationType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "exceeded", "warning", "reset":
		return true
	}
	return false
}
