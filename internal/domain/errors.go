package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrTransactionNotFound is returned when the provider knows nothing
// about the requested transaction id.
var ErrTransactionNotFound = fmt.Errorf("transaction not found")

// MalformedRecordError reports a provider record that cannot be turned
// into a Transaction. Records failing this way are skipped, not fatal.
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed transaction record: field %q: %s", e.Field, e.Reason)
}

// BalanceInconsistencyError reports the first record whose
// provider-reported accumulated balance diverges from the locally
// computed running sum. It is a warning-grade signal: the computed
// balance is still returned alongside it.
type BalanceInconsistencyError struct {
	TransactionID string
	Index         int
	Computed      decimal.Decimal
	Reported      decimal.Decimal
}

func (e *BalanceInconsistencyError) Error() string {
	return fmt.Sprintf("balance inconsistency at record %d (id=%s): computed %s, provider reported %s",
		e.Index, e.TransactionID, e.Computed.String(), e.Reported.String())
}

// UpstreamUnavailableError wraps transport failures where the provider
// could not be reached or timed out. Transient, callers may retry.
type UpstreamUnavailableError struct {
	Reason string
	Cause  error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream unavailable: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("upstream unavailable: %s", e.Reason)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Cause }

// UpstreamRejectedError wraps provider responses that indicate a
// client-side input problem. Permanent for the given input, callers
// must not retry unmodified.
type UpstreamRejectedError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamRejectedError) Error() string {
	return fmt.Sprintf("upstream rejected request: status %d: %s", e.StatusCode, e.Body)
}

// ValidationError reports a caller-supplied query that fails local
// validation before any transport call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: field %q: %s", e.Field, e.Reason)
}
