// Package errors defines the error type carried across layer boundaries.
// Services and storage return *ErrorWithStatusCode when a failure maps to a
// specific HTTP status; handlers write it with utils.WriteErrorAndStatusCode
// and treat every other error as a 500.
package errors

import "net/http"

type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func NewBadRequest(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest}
}

func NewUnauthorized(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized}
}

func NewForbidden(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusForbidden}
}

func NewNotFound(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound}
}

func NewConflict(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusConflict}
}

func NewGone(message string) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusGone}
}
