// Package service contains the reservation engine, the cancellation
// workflow and the inventory administration operations.  Services own
// validation, pricing orchestration and retry policy; atomicity lives
// in the stores they call.
package service

import "errors"

// ErrValidation marks a malformed request: empty resource list,
// duplicate ids, blank customer reference.  Not recoverable — the
// caller must fix the request.
var ErrValidation = errors.New("validation error")

// ErrLeadTimeViolation is returned when a cancellation arrives closer
// to the event date than the minimum lead time allows.  It is a policy
// outcome, not a transient condition: retrying cannot succeed, and the
// caller owes the user an explanation.
var ErrLeadTimeViolation = errors.New("cancellation lead time violated")

// ErrUnknownScope is returned when no event date can be derived for a
// scope key.
var ErrUnknownScope = errors.New("unknown scope key")
