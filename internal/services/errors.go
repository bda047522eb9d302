// Package services defines the business logic for the escrow payment
// lifecycle: request intake, confirmation, expiry sweep, and the provider
// read projections. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrRequestNotFound indicates that the referenced service request does
	// not exist.
	ErrRequestNotFound = errors.New("service request not found")

	// ErrConfirmationNotFound indicates that the referenced task confirmation
	// does not exist.
	ErrConfirmationNotFound = errors.New("confirmation not found")

	// ErrForbidden is returned when the acting principal lacks rights over
	// the target aggregate (e.g., confirming a request they are not the
	// client of, or reading another provider's projections).
	ErrForbidden = errors.New("principal lacks rights over this resource")

	// ErrAlreadyResolved is returned when a terminal transition is attempted
	// on a confirmation that a concurrent writer already resolved. This is a
	// reportable outcome, not a failure: the caller should surface the final
	// state rather than an error message.
	ErrAlreadyResolved = errors.New("confirmation already resolved")

	// ErrInvalidTransition is returned when a request lifecycle operation is
	// attempted from a status it is not legal in (e.g., completing a request
	// that never started).
	ErrInvalidTransition = errors.New("operation not legal in current status")

	// ErrPriceNotSet is returned when a request is asked to start before a
	// positive price has been quoted.
	ErrPriceNotSet = errors.New("price must be set before work starts")

	// ErrInvalidPrice is returned when a provider quotes a non-positive price.
	ErrInvalidPrice = errors.New("price must be greater than zero")
)
