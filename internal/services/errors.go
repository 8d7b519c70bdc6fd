package services

import "errors"

// Common service errors. All are recoverable by the caller: they abort the
// triggering operation before any ledger mutation and never corrupt stored
// state.
var (
	ErrNotFound                 = errors.New("record not found")
	ErrInvalidAmount            = errors.New("invalid payment amount")
	ErrInvalidAdjustment        = errors.New("adjustment would erase collected funds")
	ErrInsufficientForMandatory = errors.New("amount cannot cover non-splittable debts")
	ErrInvalidScheduleOrder     = errors.New("late fee day must fall after billing day")
	ErrStaleRecord              = errors.New("record state changed since it was read")
	ErrInvalidCategory          = errors.New("unknown ledger category")
	ErrValidation               = errors.New("validation failed")
)
