// Package web defines common components for a web application.
package web

import (
	"github.com/go-playground/validator/v10"
)

// JSONError provides type for explicit json encoded error response.
type JSONError struct {
	Error string `json:"error"`
}

// Error wraps a given err into json friendly struct.
func Error(err error) JSONError {
	return JSONError{Error: err.Error()}
}

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken          string `json:"access_token,omitempty"`
	AccessTokenExpiresAt string `json:"access_token_expires_at,omitempty"`
	Data                 any    `json:"data,omitempty"`
	Error                string `json:"error,omitempty"`
}

// GetErrorMsg returns a human readable message for the first failed
// validation rule.
func GetErrorMsg(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return ""
	}

	field := ve[0]

	switch field.Tag() {
	case "required":
		return field.Field() + " is required"
	case "min":
		return field.Field() + " must be at least " + field.Param()
	case "max":
		return field.Field() + " must be at most " + field.Param()
	case "email":
		return field.Field() + " must be a valid email address"
	case "alphanum":
		return field.Field() + " must contain only letters and numbers"
	case "currency":
		return field.Field() + " must be a three-letter uppercase currency code"
	case "oneof":
		return field.Field() + " must be one of " + field.Param()
	default:
		return field.Field() + " is invalid"
	}
}
