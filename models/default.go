package models

import "errors"

var (
	// ErrOrganizationIdRequired is returned when the context lacks an organization id.
	ErrOrganizationIdRequired = errors.New("organization id is required")
	// ErrBranchIdRequired is returned when no effective branch can be resolved.
	ErrBranchIdRequired = errors.New("branch id is required")
	// ErrDBNotInitialized is returned when the DB connection has not been established.
	ErrDBNotInitialized = errors.New("database not initialized")
	// ErrFutureDate rejects ledger writes dated after the organization's today.
	ErrFutureDate = errors.New("date must not be in the future")
)
