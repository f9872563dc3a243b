package types

import "fmt"

// CustomError is returned by middleware and rendered by the global error handler
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Forbidden is a 403 CustomError of errorType
func Forbidden(errorType, format string, args ...any) *CustomError {
	return &CustomError{Code: 403, Message: fmt.Sprintf(format, args...), Type: errorType}
}
