package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnsupported  ErrorType = "UNSUPPORTED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidQuantity  ErrorCode = "INVALID_QUANTITY"
	ErrCodeInvalidCurrency  ErrorCode = "INVALID_CURRENCY"

	ErrCodeOrderNotFound      ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeInvalidOrderStatus ErrorCode = "INVALID_ORDER_STATUS"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"

	ErrCodeCartNotFound      ErrorCode = "CART_NOT_FOUND"
	ErrCodeCartEmpty         ErrorCode = "CART_EMPTY"
	ErrCodeCartItemNotFound  ErrorCode = "CART_ITEM_NOT_FOUND"
	ErrCodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeCustomerNotFound   ErrorCode = "CUSTOMER_NOT_FOUND"
	ErrCodeCustomerInactive   ErrorCode = "CUSTOMER_INACTIVE"
	ErrCodeEmailAlreadyUsed   ErrorCode = "EMAIL_ALREADY_USED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeTransactionNotFound      ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeInvalidSignature         ErrorCode = "INVALID_SIGNATURE"
	ErrCodeRefundNotAllowed         ErrorCode = "REFUND_NOT_ALLOWED"
	ErrCodeUnsupportedPaymentMethod ErrorCode = "UNSUPPORTED_PAYMENT_METHOD"
	ErrCodeGatewayUnavailable       ErrorCode = "GATEWAY_UNAVAILABLE"

	ErrCodeUnsupportedCommand ErrorCode = "UNSUPPORTED_COMMAND"
	ErrCodeExecutionFailed    ErrorCode = "EXECUTION_FAILED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {

			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewUnsupportedError marks a request the system recognizes but cannot
// serve, such as a payment method no registered factory handles.
func NewUnsupportedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnsupported,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewGatewayError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeGatewayUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func NewExecutionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeExecutionFailed,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrOrderNotFound      = NewNotFoundError("Order not found", ErrCodeOrderNotFound)
	ErrInvalidOrderStatus = NewValidationError("invalid order status for this operation", ErrCodeInvalidOrderStatus)
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access to order", ErrCodeUnauthorizedAccess)

	ErrCartNotFound      = NewNotFoundError("Cart not found", ErrCodeCartNotFound)
	ErrCartEmpty         = NewValidationError("cart has no items", ErrCodeCartEmpty)
	ErrCartItemNotFound  = NewNotFoundError("Item is not in the cart", ErrCodeCartItemNotFound)
	ErrProductNotFound   = NewNotFoundError("Product not found", ErrCodeProductNotFound)
	ErrInsufficientStock = NewConflictError("not enough stock for requested quantity", ErrCodeInsufficientStock)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrCustomerNotFound   = NewNotFoundError("Customer not found", ErrCodeCustomerNotFound)
	ErrCustomerInactive   = NewForbiddenError("Customer account is inactive", ErrCodeCustomerInactive)
	ErrEmailAlreadyUsed   = NewConflictError("Email is already registered", ErrCodeEmailAlreadyUsed)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrTransactionNotFound = NewNotFoundError("Payment transaction not found", ErrCodeTransactionNotFound)
	ErrRefundNotAllowed    = NewValidationError("transaction is not eligible for refund", ErrCodeRefundNotAllowed)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
