// Package translator implements the multi-provider translation cascade.
package translator

import (
	"context"
	"net/http"
	"time"
)

// OutcomeKind enumerates the classified results of one provider attempt.
type OutcomeKind int

const (
	// OutcomeTranslated is a successful translation.
	OutcomeTranslated OutcomeKind = iota
	// OutcomeQuotaExceeded means this provider's quota is spent; other
	// providers may still succeed.
	OutcomeQuotaExceeded
	// OutcomeAuthFailed means the provider rejected our credentials. The
	// cascade disables the provider for the rest of the session.
	OutcomeAuthFailed
	// OutcomeUnreachable is a transport or timeout failure.
	OutcomeUnreachable
	// OutcomeRejected covers malformed or empty provider responses.
	OutcomeRejected
)

// String returns the outcome kind name for logging.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTranslated:
		return "translated"
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeAuthFailed:
		return "auth_failed"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of a single provider attempt. Every
// failure of an external call is converted into one of these at the adapter
// boundary; no provider error escapes as a plain Go error.
type Outcome struct {
	Kind   OutcomeKind
	Text   string // set when Kind == OutcomeTranslated
	Reason string // human-readable detail for non-success kinds
	Err    error  // underlying error, when there is one
}

// Translated builds a success outcome.
func Translated(text string) Outcome {
	return Outcome{Kind: OutcomeTranslated, Text: text}
}

// QuotaExceeded builds a quota-exhausted outcome.
func QuotaExceeded(reason string) Outcome {
	return Outcome{Kind: OutcomeQuotaExceeded, Reason: reason}
}

// AuthFailed builds an authorization-failure outcome.
func AuthFailed(reason string) Outcome {
	return Outcome{Kind: OutcomeAuthFailed, Reason: reason}
}

// Unreachable builds a transport-failure outcome.
func Unreachable(err error) Outcome {
	reason := "provider unreachable"
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Kind: OutcomeUnreachable, Reason: reason, Err: err}
}

// Rejected builds a malformed-response outcome.
func Rejected(reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}

// Provider wraps one translation backend. Implementations normalize the
// target-language code to the backend's expected format and classify every
// failure as an Outcome.
type Provider interface {
	// Name returns the provider's display name, used in provenance and logs.
	Name() string

	// Translate attempts one translation. The context carries the per-call
	// deadline; implementations must not retry internally.
	Translate(ctx context.Context, text, targetLang string) Outcome
}

// newHTTPClient builds the shared client shape used by all adapters. The
// timeout is a safety net; per-call deadlines come from the context.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
