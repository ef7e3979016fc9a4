package models

// UserRole controls how the effective branch scope is resolved.
// Owners pick a branch per request; clerks are pinned to one branch.
type UserRole string

const (
	UserRoleOwner UserRole = "O"
	UserRoleClerk UserRole = "C"
)

// OpeningSource records the provenance of an opening stock row.
// Manual rows are deliberate historical corrections and are never
// overwritten by cascade auto-derivation.
type OpeningSource string

const (
	OpeningSourceManual OpeningSource = "M"
	OpeningSourceAuto   OpeningSource = "A"
)
