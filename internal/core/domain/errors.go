package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a DomainError into one of the failure families that
// callers branch on. It is derived from the numeric suffix of the code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindStateConflict
	KindArithmetic
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStateConflict:
		return "state_conflict"
	case KindArithmetic:
		return "arithmetic"
	default:
		return "internal"
	}
}

// DomainError represents a governance failure with a stable error code.
// Codes have the form GM-<AREA>-<NNNN>; the first three digits of NNNN
// follow HTTP status semantics.
type DomainError struct {
	Code    string // Error code (e.g., "GM-PROP-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind reports the failure family of the error.
func (e *DomainError) Kind() Kind {
	n := len(e.Code)
	if n < 4 {
		return KindInternal
	}
	switch e.Code[n-4 : n-1] {
	case "400":
		return KindValidation
	case "401", "403":
		return KindAuthorization
	case "404":
		return KindNotFound
	case "409", "429":
		return KindStateConflict
	case "422":
		return KindArithmetic
	default:
		return KindInternal
	}
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// KindOf returns the Kind of err, or KindInternal for non-domain errors.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind()
	}
	return KindInternal
}

// ============================================================================
// Proposal Errors (PROP)
// ============================================================================

var (
	// ErrProposalNotFound indicates no active or archived proposal has the id.
	ErrProposalNotFound = NewDomainError("GM-PROP-4040", "proposal not found")

	// ErrMetadataNotFound indicates the proposal has no metadata attached.
	ErrMetadataNotFound = NewDomainError("GM-PROP-4041", "metadata not found")

	// ErrMaxProposalsReached indicates the organization has too many active proposals.
	ErrMaxProposalsReached = NewDomainError("GM-PROP-4090", "maximum active proposals reached")

	// ErrProposalStillActive indicates finalization before the voting period ended.
	ErrProposalStillActive = NewDomainError("GM-PROP-4091", "proposal still active")

	// ErrProposalNotRunning indicates the proposal already left the running state.
	ErrProposalNotRunning = NewDomainError("GM-PROP-4092", "proposal not running")

	// ErrUnacceptedProposal indicates only accepted proposals can be implemented.
	ErrUnacceptedProposal = NewDomainError("GM-PROP-4093", "proposal was not accepted")

	// ErrMetadataAlreadySet indicates metadata can only be attached once.
	ErrMetadataAlreadySet = NewDomainError("GM-PROP-4094", "metadata already set")

	// ErrVoteAlreadyCast indicates the voter repeated the same direction.
	ErrVoteAlreadyCast = NewDomainError("GM-PROP-4095", "vote already cast")

	// ErrVotingClosed indicates the proposal is outside its voting window.
	ErrVotingClosed = NewDomainError("GM-PROP-4096", "voting period closed")

	// ErrNotProposalOwner indicates the caller does not own the proposal.
	ErrNotProposalOwner = NewDomainError("GM-PROP-4030", "not the proposal owner")
)

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrConfigurationNotFound indicates the organization is not configured.
	ErrConfigurationNotFound = NewDomainError("GM-CONF-4040", "configuration not found")

	// ErrInvalidConfiguration indicates configuration values failed validation.
	ErrInvalidConfiguration = NewDomainError("GM-CONF-4001", "invalid configuration")
)

// ============================================================================
// Ledger Errors (LEDG)
// ============================================================================

var (
	// ErrNegativeAmount indicates an amount below zero was supplied.
	ErrNegativeAmount = NewDomainError("GM-LEDG-4220", "negative amount")

	// ErrInsufficientBalance indicates the account cannot cover the amount.
	ErrInsufficientBalance = NewDomainError("GM-LEDG-4221", "insufficient balance")

	// ErrInsufficientAllowance indicates the spender allowance cannot cover the amount.
	ErrInsufficientAllowance = NewDomainError("GM-LEDG-4222", "insufficient allowance")

	// ErrAmountOverflow indicates a result outside the signed 128-bit range.
	ErrAmountOverflow = NewDomainError("GM-LEDG-4223", "amount overflow")

	// ErrNoCheckpoint indicates the account has no balance history.
	ErrNoCheckpoint = NewDomainError("GM-LEDG-4040", "no checkpoint")

	// ErrCheckpointIndex indicates a checkpoint index past the end of the series.
	ErrCheckpointIndex = NewDomainError("GM-LEDG-4041", "checkpoint index out of range")

	// ErrTokenNotFound indicates the token address is unknown.
	ErrTokenNotFound = NewDomainError("GM-LEDG-4042", "token not found")

	// ErrCanOnlyBeMintedOnce indicates the account already holds history.
	ErrCanOnlyBeMintedOnce = NewDomainError("GM-LEDG-4090", "account can only be minted once")

	// ErrNotTokenOwner indicates the caller does not own the token.
	ErrNotTokenOwner = NewDomainError("GM-LEDG-4030", "not the token owner")
)

// ============================================================================
// Organization Errors (ORG)
// ============================================================================

var (
	// ErrOrganizationNotFound indicates the organization does not exist.
	ErrOrganizationNotFound = NewDomainError("GM-ORG-4040", "organization does not exist")

	// ErrTokenNotIssued indicates the organization has not issued its token yet.
	ErrTokenNotIssued = NewDomainError("GM-ORG-4041", "organization token not issued")

	// ErrOrganizationExists indicates the organization id is taken.
	ErrOrganizationExists = NewDomainError("GM-ORG-4090", "organization already exists")

	// ErrTokenAlreadyIssued indicates the organization already issued a token.
	ErrTokenAlreadyIssued = NewDomainError("GM-ORG-4091", "organization already issued a token")

	// ErrMustRemoveConfigFirst indicates the configuration blocks destruction.
	ErrMustRemoveConfigFirst = NewDomainError("GM-ORG-4092", "configuration must be removed first")

	// ErrNotOrganizationOwner indicates the caller does not administer the organization.
	ErrNotOrganizationOwner = NewDomainError("GM-ORG-4030", "not the organization owner")
)

// ============================================================================
// Hook Errors (HOOK)
// ============================================================================

var (
	// ErrHookRejected indicates an organization hook aborted the call.
	ErrHookRejected = NewDomainError("GM-HOOK-4090", "rejected by organization hook")

	// ErrHookNotFound indicates the configured hook address is not registered.
	ErrHookNotFound = NewDomainError("GM-HOOK-4040", "hook not found")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrPrincipalMissing indicates the caller identity was not supplied.
	ErrPrincipalMissing = NewDomainError("GM-AUTH-4010", "principal not provided")

	// ErrAdminKeyInvalid indicates the admin key did not verify.
	ErrAdminKeyInvalid = NewDomainError("GM-AUTH-4011", "invalid admin key")

	// ErrPermissionDenied indicates insufficient permissions.
	ErrPermissionDenied = NewDomainError("GM-AUTH-4030", "permission denied")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("GM-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("GM-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("GM-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("GM-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("GM-SYS-4290", "too many requests")

	// ErrRouteNotFound indicates a request for an unknown API path.
	ErrRouteNotFound = NewDomainError("GM-SYS-4040", "route not found")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("GM-ARG-4001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("GM-ARG-4002", "missing required argument")
)
