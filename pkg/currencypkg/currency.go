// Package currencypkg provides common currency related functionality for apps.
package currencypkg

import "strings"

// Constants for frequently used currency codes.
const (
	USD = "USD"
	EUR = "EUR"
	RMB = "RMB"
)

// Normalize trims surrounding whitespace and uppercases the code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code is shaped like an ISO-4217 currency code:
// exactly three uppercase letters.
func IsValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}

	return true
}
