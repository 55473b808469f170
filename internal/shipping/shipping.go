// Package shipping prices delivery by destination city.
package shipping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultEstimate applies to every city outside the lead-time table.
const DefaultEstimate = "3-5 business days"

// DefaultCost applies to every city outside the fee table.
var DefaultCost = decimal.RequireFromString("6.00")

var fees = map[string]decimal.Decimal{
	"SANTA MARTA":  decimal.Zero,
	"CIÉNAGA":      decimal.RequireFromString("2.00"),
	"CIENAGA":      decimal.RequireFromString("2.00"),
	"BARRANQUILLA": decimal.RequireFromString("4.00"),
	"CARTAGENA":    decimal.RequireFromString("4.00"),
	"BOGOTA":       decimal.RequireFromString("5.00"),
	"BOGOTÁ":       decimal.RequireFromString("5.00"),
	"MEDELLIN":     decimal.RequireFromString("5.00"),
	"MEDELLÍN":     decimal.RequireFromString("5.00"),
	"CALI":         decimal.RequireFromString("5.00"),
	"BUCARAMANGA":  decimal.RequireFromString("5.50"),
	"PEREIRA":      decimal.RequireFromString("5.50"),
	"MANIZALES":    decimal.RequireFromString("5.50"),
	"ARMENIA":      decimal.RequireFromString("5.50"),
}

var leadTimes = map[string]string{
	"SANTA MARTA":  "1-2 business days",
	"CIÉNAGA":      "1-2 business days",
	"CIENAGA":      "1-2 business days",
	"BARRANQUILLA": "2-3 business days",
	"CARTAGENA":    "2-3 business days",
	"BOGOTA":       "2-3 business days",
	"BOGOTÁ":       "2-3 business days",
	"MEDELLIN":     "2-3 business days",
	"MEDELLÍN":     "2-3 business days",
	"CALI":         "2-3 business days",
}

// normalize trims and upper-cases. Accents are kept, so both spellings of a
// city are listed in the tables.
func normalize(city string) string {
	return strings.ToUpper(strings.TrimSpace(city))
}

// CalculateShipping returns the delivery fee for city.
func CalculateShipping(city string) decimal.Decimal {
	if fee, ok := fees[normalize(city)]; ok {
		return fee
	}
	return DefaultCost
}

// EstimatedDays returns the delivery lead time for city.
func EstimatedDays(city string) string {
	if d, ok := leadTimes[normalize(city)]; ok {
		return d
	}
	return DefaultEstimate
}
