// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Listing errors
	CodeTooManyImages          Code = "TOO_MANY_IMAGES"
	CodeInvalidPropertyType    Code = "INVALID_PROPERTY_TYPE"
	CodeInvalidPropertyStatus  Code = "INVALID_PROPERTY_STATUS"
	CodeInvalidCertificateType Code = "INVALID_CERTIFICATE_TYPE"
	CodeInsufficientPayment    Code = "INSUFFICIENT_PAYMENT"

	// Tipping errors
	CodeInsufficientAmount       Code = "INSUFFICIENT_AMOUNT"
	CodeMessageTooLong           Code = "MESSAGE_TOO_LONG"
	CodeProfileNotFound          Code = "PROFILE_NOT_FOUND"
	CodeCreatorInactive          Code = "CREATOR_INACTIVE"
	CodeCreatorAlreadyRegistered Code = "CREATOR_ALREADY_REGISTERED"

	// Shared validation errors
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidAddress     Code = "INVALID_ADDRESS"
	CodeArithmeticOverflow Code = "ARITHMETIC_OVERFLOW"

	// Value transfer errors
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)

// HTTPStatus maps domain codes to HTTP response status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeTooManyImages,
		CodeInvalidPropertyType,
		CodeInvalidPropertyStatus,
		CodeInvalidCertificateType,
		CodeMessageTooLong,
		CodeInvalidInput,
		CodeInvalidAddress,
		CodeArithmeticOverflow:
		return http.StatusBadRequest

	// Unprocessable - state does not allow the operation
	case CodeInsufficientPayment,
		CodeInsufficientAmount,
		CodeInsufficientFunds,
		CodeCreatorInactive:
		return http.StatusUnprocessableEntity

	case CodeUnauthorized:
		return http.StatusForbidden

	case CodeNotFound,
		CodeProfileNotFound:
		return http.StatusNotFound

	case CodeAlreadyExists,
		CodeCreatorAlreadyRegistered:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// IsPrecondition reports whether the code describes a rejected operation
// rather than an infrastructure failure.
func (c Code) IsPrecondition() bool {
	return c.HTTPStatus() < http.StatusInternalServerError
}
