package order

import "net/http"

// Code is the stable machine-readable error code returned to callers. The
// pour-control device maps codes, not messages, to its display states.
type Code string

const (
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeMissingFields      Code = "MISSING_FIELDS"
	CodeExpired            Code = "EXPIRED"
	CodeWrongTap           Code = "WRONG_TAP"
	CodeOrderNotFound      Code = "ORDER_NOT_FOUND"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeAlreadyRedeemed    Code = "ALREADY_REDEEMED"
	CodeInvalidOrderStatus Code = "INVALID_ORDER_STATUS"
	CodeTapNotFound        Code = "TAP_NOT_FOUND"
	CodeTempNotReady       Code = "TEMP_NOT_READY"
	CodeInventoryLow       Code = "INVENTORY_LOW"
	CodeUpdateFailed       Code = "UPDATE_FAILED"
)

// Error carries a stable code plus structured context (correct tap number,
// current status, shortfall) the caller needs to react.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// With attaches one detail key and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 4)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus maps a code to the response status; devices should still key
// off the code itself.
func HTTPStatus(c Code) int {
	switch c {
	case CodeUnauthorized, CodeExpired, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeMissingFields:
		return http.StatusBadRequest
	case CodeOrderNotFound, CodeTapNotFound:
		return http.StatusNotFound
	case CodeWrongTap, CodeAlreadyRedeemed, CodeInvalidOrderStatus, CodeTempNotReady, CodeInventoryLow:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
