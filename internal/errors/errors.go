package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrUserIDRequired                 = "User ID is required"
	ErrFailedExpireWithdrawals        = "Failed to expire stale withdrawals"
)

type BadRequestError struct {
	Message string
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type UnauthorizedError struct {
	Message string
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// InvalidStateError rejects a lifecycle operation that is not permitted in
// the transaction's current status.
type InvalidStateError struct {
	Message string
	Current string
}

func NewInvalidStateError(message, current string) *InvalidStateError {
	return &InvalidStateError{Message: message, Current: current}
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// LimitExceededError carries the quota context returned to a caller whose
// withdrawal would cross the daily cap.
type LimitExceededError struct {
	WithdrawnToday decimal.Decimal
	Remaining      decimal.Decimal
	Requested      decimal.Decimal
}

func NewLimitExceededError(withdrawnToday, remaining, requested decimal.Decimal) *LimitExceededError {
	return &LimitExceededError{
		WithdrawnToday: withdrawnToday,
		Remaining:      remaining,
		Requested:      requested,
	}
}

func (e *LimitExceededError) Error() string {
	return "daily withdrawal limit exceeded"
}

// ProcessorError is a soft upstream failure: the payment processor rejected
// or could not confirm an operation. Processor-specific detail stays in the
// server-side logs.
type ProcessorError struct {
	Message string
}

func NewProcessorError(message string) *ProcessorError {
	return &ProcessorError{Message: message}
}

func (e *ProcessorError) Error() string {
	return e.Message
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
