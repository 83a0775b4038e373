package settlement

import "errors"

var (
	// ErrPreconditionFailed marks a validation failure the caller must fix
	// before retrying (auction not ended, reserve not met, and so on).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrConflict marks a double-billing attempt; retrying with the same
	// inputs can never succeed.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState marks an operation against an entity whose lifecycle
	// state forbids it.
	ErrInvalidState = errors.New("invalid state")

	// ErrAmountMismatch marks a gateway-reported amount that differs from
	// the payment's grand total. The payment is never marked paid.
	ErrAmountMismatch = errors.New("amount mismatch")

	// ErrUnknownGatewayStatus marks a status outside the gateway contract.
	// The payment is defensively canceled; the error surfaces for operator
	// attention.
	ErrUnknownGatewayStatus = errors.New("unknown gateway status")

	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")
)
