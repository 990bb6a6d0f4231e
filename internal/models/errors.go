package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrBelowMinimum          = errors.New("withdrawal below minimum")
	ErrQuotaExhausted        = errors.New("task quota exhausted")
	ErrDuplicateSubmission   = errors.New("worker already has an active submission for this task")
	ErrAlreadyFinalized      = errors.New("already finalized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrTaskNotFound          = fmt.Errorf("task %w", ErrNotFound)
	ErrQuotaFieldImmutable   = errors.New("payable_amount and required_workers cannot be changed after creation")
	ErrDuplicateConfirmation = errors.New("payment confirmation already recorded")
	ErrInvalidPackage        = errors.New("unknown coin package")
	ErrAccountInUse          = errors.New("account has open tasks, submissions or withdrawals")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrInsufficientFunds, "INSUFFICIENT_FUNDS"},
	{ErrBelowMinimum, "BELOW_MINIMUM"},
	{ErrQuotaExhausted, "QUOTA_EXHAUSTED"},
	{ErrDuplicateSubmission, "DUPLICATE_SUBMISSION"},
	{ErrAlreadyFinalized, "ALREADY_FINALIZED"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrTaskNotFound, "TASK_NOT_FOUND"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrQuotaFieldImmutable, "QUOTA_FIELD_IMMUTABLE"},
	{ErrDuplicateConfirmation, "DUPLICATE_CONFIRMATION"},
	{ErrInvalidPackage, "INVALID_PACKAGE"},
	{ErrAccountInUse, "ACCOUNT_IN_USE"},
	{ErrDuplicateEmail, "DUPLICATE_EMAIL"},
	{ErrInvalidCredentials, "INVALID_CREDENTIALS"},
}

// Kind returns the stable code of the first sentinel err matches, or INTERNAL.
func Kind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "INTERNAL"
}
