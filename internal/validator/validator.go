// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	yearMonthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	yearRegex      = regexp.MustCompile(`^\d{4}$`)
)

// validCurrencies contains the ISO 4217 codes the aggregator reports.
var validCurrencies = map[string]bool{
	"AUD": true, "BRL": true, "CAD": true, "CHF": true, "CNY": true,
	"DKK": true, "EUR": true, "GBP": true, "HKD": true, "IDR": true,
	"INR": true, "JPY": true, "KRW": true, "MXN": true, "MYR": true,
	"NOK": true, "NZD": true, "PHP": true, "PLN": true, "SEK": true,
	"SGD": true, "THB": true, "TWD": true, "USD": true, "VND": true,
	"ZAR": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("direction", validateDirection)
		_ = v.RegisterValidation("year_month", validateYearMonth)
		_ = v.RegisterValidation("summary_type", validateSummaryType)
		_ = v.RegisterValidation("summary_range", validateSummaryRange)
	}
}

// decimalValue lets numeric tags such as gt=0 apply to decimal.Decimal fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// IsCurrency reports whether code is a supported ISO 4217 currency.
func IsCurrency(code string) bool {
	return validCurrencies[code]
}

// IsYearMonth reports whether s has the form YYYY-MM.
func IsYearMonth(s string) bool {
	return yearMonthRegex.MatchString(s)
}

func validateISO4217(fl validator.FieldLevel) bool {
	return IsCurrency(fl.Field().String())
}

func validateDirection(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateYearMonth(fl validator.FieldLevel) bool {
	return IsYearMonth(fl.Field().String())
}

func validateSummaryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "month", "year":
		return true
	}
	return false
}

func validateSummaryRange(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return yearRegex.MatchString(s) || yearMonthRegex.MatchString(s)
}
