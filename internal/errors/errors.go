// Package errors defines the error-kind taxonomy shared by every component.
// Every failure that should reach a caller (REST or event channel) as a
// typed envelope is, or wraps, a *Error from this package.
package errors

import "fmt"

// Kind identifies a class of failure. Kinds map directly onto the error
// envelope `code` delivered to clients; never invent a new one ad hoc in a
// handler, add it here instead.
type Kind string

const (
	// Validation
	KindMissingFields          Kind = "MISSING_FIELDS"
	KindInvalidSlot            Kind = "INVALID_SLOT"
	KindSlotOccupied           Kind = "SLOT_OCCUPIED"
	KindAreaExceeded           Kind = "AREA_EXCEEDED"
	KindUniqueStructureExists  Kind = "UNIQUE_STRUCTURE_EXISTS"
	KindMinTownHallLevel       Kind = "MIN_TOWN_HALL_LEVEL"
	KindPrerequisitesNotMet    Kind = "PREREQUISITES_NOT_MET"
	KindInsufficientResources  Kind = "INSUFFICIENT_RESOURCES"

	// Auth
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindNotAdmin          Kind = "NOT_ADMIN"
	KindNotSettlementOwner Kind = "NOT_SETTLEMENT_OWNER"

	// Not found
	KindSettlementNotFound Kind = "SETTLEMENT_NOT_FOUND"
	KindStructureNotFound  Kind = "STRUCTURE_NOT_FOUND"
	KindTileNotFound       Kind = "TILE_NOT_FOUND"
	KindWorldNotFound      Kind = "WORLD_NOT_FOUND"
	KindAccountNotFound    Kind = "ACCOUNT_NOT_FOUND"
	KindServerNotFound     Kind = "SERVER_NOT_FOUND"

	// Conflict
	KindWorldNotReady     Kind = "WORLD_NOT_READY"
	KindDisasterInProgress Kind = "DISASTER_IN_PROGRESS"
	KindQueueFull         Kind = "QUEUE_FULL"

	// Transient
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"

	// Fatal
	KindMetadataFetchFailed Kind = "METADATA_FETCH_FAILED"
	KindCreateFailed        Kind = "CREATE_FAILED"
	KindUpgradeFailed       Kind = "UPGRADE_FAILED"
	KindDemolishFailed      Kind = "DEMOLISH_FAILED"
)

// Error is the typed error value carried through every layer.
type Error struct {
	Kind    Kind
	Message string
	// Details carries kind-specific structured data, e.g. the shortages
	// map for KindInsufficientResources.
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a cause, preserving it for
// errors.Is/As while still presenting a stable Kind to the edges.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails attaches structured detail data and returns the receiver for
// chaining at the call site.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// NotFoundError represents a resource not found error. Nothing in this
// module constructs it (persistence lookups report missing rows as *Error
// via persistence.NotFound), and KindOf reports KindCreateFailed for it as
// for any error that is not an *Error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// KindOf extracts the Kind carried by err, defaulting to a generic fatal
// kind when err is not one of ours (a programmer error or an unexpected
// stdlib/driver failure bubbling up unadorned).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := err.(*Error); ok {
		return appErr.Kind
	}
	return KindCreateFailed
}

// IsTransient reports whether err should be retried with backoff rather
// than surfaced immediately.
func IsTransient(err error) bool {
	return KindOf(err) == KindStoreUnavailable
}
