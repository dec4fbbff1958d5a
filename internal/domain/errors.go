package domain

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by stores when no record matches the id.
var ErrRecordNotFound = errors.New("content record not found")

// CredentialReason classifies why a credential could not be produced.
type CredentialReason string

const (
	CredentialMissing CredentialReason = "missing"
	CredentialExpired CredentialReason = "expired"
	CredentialRevoked CredentialReason = "revoked"
)

// PublishErrorKind classifies a failed platform publish attempt.
type PublishErrorKind string

const (
	PublishErrorAuth      PublishErrorKind = "auth"
	PublishErrorRateLimit PublishErrorKind = "rate_limited"
	PublishErrorAPI       PublishErrorKind = "api"
	PublishErrorNetwork   PublishErrorKind = "network"
	// PublishErrorCredential marks attempts that never reached the platform
	// because no valid credential was available.
	PublishErrorCredential PublishErrorKind = "credential"
)

// InvalidTransitionError reports a disallowed state change. The record is
// left untouched.
type InvalidTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("record %s: invalid transition %s -> %s", e.ID, e.From, e.To)
}

// ConflictError reports a lost compare-and-swap race. Callers may reread
// and retry at their own discretion; the core never retries it.
type ConflictError struct {
	ID       string
	Expected Status
	Actual   Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("record %s: expected status %s, found %s", e.ID, e.Expected, e.Actual)
}

// AlreadyInProgressError reports a re-entrant publish attempt while the
// record is in the publishing state.
type AlreadyInProgressError struct {
	ID string
}

func (e *AlreadyInProgressError) Error() string {
	return fmt.Sprintf("record %s: publish already in progress", e.ID)
}

// DiscoveryError wraps a failure of the discovery capability. Fatal to the
// run; no record is created.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string { return fmt.Sprintf("discovery: %v", e.Err) }
func (e *DiscoveryError) Unwrap() error { return e.Err }

// DraftingError wraps malformed or empty output of the drafting capability.
type DraftingError struct {
	Err error
}

func (e *DraftingError) Error() string { return fmt.Sprintf("drafting: %v", e.Err) }
func (e *DraftingError) Unwrap() error { return e.Err }

// CredentialError reports that no valid credential could be produced for a
// platform. Non-fatal to a publish run; recorded as that platform's outcome.
type CredentialError struct {
	Platform Platform
	Reason   CredentialReason
	Err      error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential for %s: %s: %v", e.Platform, e.Reason, e.Err)
	}
	return fmt.Sprintf("credential for %s: %s", e.Platform, e.Reason)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// PublishError reports a transport or API failure of one publish attempt.
type PublishError struct {
	Platform   Platform
	Kind       PublishErrorKind
	StatusCode int
	Message    string
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("publish to %s: %s (%d): %s", e.Platform, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("publish to %s: %s: %s", e.Platform, e.Kind, e.Message)
}
