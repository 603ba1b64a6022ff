package acquire

import (
	"context"
	"time"
)

// Kind tags the variant carried by an Outcome.
type Kind int

const (
	// KindSuccess carries a handle.
	KindSuccess Kind = iota
	// KindRateLimited carries the cooldown the transport asked for.
	KindRateLimited
	// KindTransient carries a retryable failure.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single acquisition attempt.
type Outcome struct {
	Kind     Kind
	Handle   string
	Cooldown time.Duration
	Err      error
	// Discard removes the artifact left behind by a successful attempt. It is
	// called best-effort after the handle is cached and may be nil.
	Discard func(ctx context.Context) error
}

// Succeeded reports an acquired handle.
func Succeeded(handle string, discard func(ctx context.Context) error) Outcome {
	return Outcome{Kind: KindSuccess, Handle: handle, Discard: discard}
}

// RateLimitedFor reports that the transport asked the caller to back off.
func RateLimitedFor(cooldown time.Duration, err error) Outcome {
	if cooldown < 0 {
		cooldown = 0
	}
	return Outcome{Kind: KindRateLimited, Cooldown: cooldown, Err: err}
}

// Failed reports a transient failure.
func Failed(err error) Outcome {
	return Outcome{Kind: KindTransient, Err: err}
}

// Item is a clip handed to the transport.
type Item struct {
	Identifier string
	Label      string
	Path       string
}

// Transport obtains a handle for a local clip.
type Transport interface {
	Acquire(ctx context.Context, item Item) Outcome
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, item Item) Outcome

// Acquire calls f.
func (f TransportFunc) Acquire(ctx context.Context, item Item) Outcome {
	return f(ctx, item)
}

// Saver persists the complete handle mapping.
type Saver interface {
	Save(handles map[string]string) error
}
