package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Code identifies a stable, user-visible error category. Handlers map codes to
// HTTP statuses; services and repositories only ever deal in codes.
type Code string

const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeForbidden          Code = "FORBIDDEN"
	CodeConflict           Code = "CONFLICT"
	CodeProductNotFound    Code = "PRODUCT_NOT_FOUND"
	CodeVariantNotFound    Code = "VARIANT_NOT_FOUND"
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeTransport          Code = "TRANSPORT_ERROR"
	CodeTimeout            Code = "TIMEOUT_ERROR"
	CodeRemote             Code = "REMOTE_ERROR"
	CodeStorage            Code = "STORAGE_ERROR"
	CodeCompensationFailed Code = "COMPENSATION_FAILED"
)

// Error carries a code and a client-safe message. The wrapped cause is kept for
// logs only and never serialized to the caller.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two errors by code, so sentinel-style checks work through wrapping:
// errors.Is(err, apperrors.NotFound("")) is true for any NOT_FOUND error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return newf(CodeInvalidInput, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(CodeNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(CodeForbidden, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(CodeConflict, format, args...)
}

func ProductNotFound(productID string) *Error {
	return newf(CodeProductNotFound, "product not found: %s", productID)
}

func VariantNotFound(productID, sku string) *Error {
	return newf(CodeVariantNotFound, "variant %s not found for product %s", sku, productID)
}

func InsufficientStock(productID string, requested, available int) *Error {
	return newf(CodeInsufficientStock,
		"insufficient stock for product %s (requested %d, available %d)",
		productID, requested, available)
}

func Validation(err error) *Error {
	return &Error{Code: CodeValidation, Message: "document validation failed", Err: err}
}

func Transport(err error) *Error {
	return &Error{Code: CodeTransport, Message: "broker transport failure", Err: err}
}

func Timeout(queue string) *Error {
	return newf(CodeTimeout, "no reply from %s within deadline", queue)
}

func Remote(queue, remoteMsg string) *Error {
	return newf(CodeRemote, "%s: %s", queue, remoteMsg)
}

func Storage(err error) *Error {
	return &Error{Code: CodeStorage, Message: "storage operation failed", Err: err}
}

// CodeOf extracts the code from any error in the chain, defaulting to
// CodeStorage for untyped failures so raw internals are never surfaced.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

// HTTPStatus maps a code to the status the handler layer responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput, CodeValidation:
		return fiber.StatusBadRequest
	case CodeNotFound, CodeProductNotFound, CodeVariantNotFound:
		return fiber.StatusNotFound
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeConflict, CodeInsufficientStock:
		return fiber.StatusConflict
	case CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// Message returns the client-safe message for an error chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
