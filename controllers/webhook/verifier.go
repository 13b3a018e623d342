package webhookController

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Webhook security failures. Handlers map these to 400 responses and log
// the source IP; the payload is never trusted past a failed check.
var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleEvent       = errors.New("stale event")
)

// VerifyEvent validates a raw webhook delivery and returns the typed event.
// Verification is pure: no state is touched on any path.
func VerifyEvent(payload []byte, sigHeader, secret string, now time.Time, tolerance time.Duration) (stripe.Event, error) {
	if sigHeader == "" {
		return stripe.Event{}, ErrMissingSignature
	}

	// Signature check is delegated to the provider SDK. Its timestamp
	// tolerance is disabled so staleness is reported as a distinct failure
	// below rather than folded into the signature error, and the account's
	// pinned API version is accepted as-is.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
		IgnoreTolerance:          true,
	})
	if err != nil {
		return stripe.Event{}, ErrInvalidSignature
	}

	// Bound replay exposure: reject events older than the tolerance window
	if now.Sub(time.Unix(event.Created, 0)) > tolerance {
		return stripe.Event{}, ErrStaleEvent
	}

	return event, nil
}
