package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientAuth marks a 401/403 on an authenticated call.
	ErrTransientAuth  = errors.New("remote session rejected")
	ErrNotConnected   = errors.New("session is not connected")
	ErrPassInProgress = errors.New("sync pass already in progress")
	ErrStatusNotFound = errors.New("sync status not found")
	ErrSecretNotFound = errors.New("secret not found")
)

// HTTPStatusError is a non-success response from the remote service.
type HTTPStatusError struct {
	Method   string
	Endpoint string
	Status   int
	Body     string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

// AuthenticationError means login failed, or a request was still rejected
// after re-authenticating. The session is failed.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string { return "authenticate: " + e.Err.Error() }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// TargetResolutionError means the upload target could not be listed or
// created. The session is failed.
type TargetResolutionError struct {
	Err error
}

func (e *TargetResolutionError) Error() string { return "resolve upload target: " + e.Err.Error() }
func (e *TargetResolutionError) Unwrap() error { return e.Err }

// ConversionError is a per-record failure to map or validate a source record.
type ConversionError struct {
	// Variant names the source record kind, e.g. `treatments/"Site Change"`.
	Variant  string
	RecordID string
	Err      error
}

func (e *ConversionError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("convert %s: %v", e.Variant, e.Err)
	}
	return fmt.Sprintf("convert %s %s: %v", e.Variant, e.RecordID, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

var (
	ErrUnknownVariant = errors.New("unrecognized record variant")
	ErrInvalidRecord  = errors.New("invalid record")
	// ErrInvalidPayload means a request body could not be encoded. Resending
	// the same records cannot succeed.
	ErrInvalidPayload = errors.New("request payload cannot be encoded")
)

type ReconciliationReason string

const (
	ReasonNoActiveProfile ReconciliationReason = "no active profile"
	ReasonScheduleLookup  ReconciliationReason = "scheduled rate lookup failed"
)

// ReconciliationError is a per-record failure of the basal reconciler. The
// record is dropped from the batch.
type ReconciliationError struct {
	Reason   ReconciliationReason
	RecordID string
	Err      error
}

func (e *ReconciliationError) Error() string {
	msg := fmt.Sprintf("reconcile %s: %s", e.RecordID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// UploadError is a failed submission of a batch chunk.
type UploadError struct {
	Chunk    int
	Records  int
	Attempts int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload chunk %d (%d records) after %d attempts: %v", e.Chunk, e.Records, e.Attempts, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
