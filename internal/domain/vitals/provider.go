package vitals

import (
	"context"
	"errors"
	"fmt"
)

// Operation names, also used as metric and log labels.
const (
	OpHeartRate = "heart_rate"
	OpOxygen    = "oxygen"
	OpTrends    = "trends"
)

// Provider produces vital-sign readings for a user. Failures are reported as *ProviderFailure.
type Provider interface {
	MeasureHeartRate(ctx context.Context, userID string) (Measurement, error)
	MeasureOxygen(ctx context.Context, userID string) (Measurement, error)
	Trends(ctx context.Context, userID string) (TrendSeries, error)
}

// FailureReason classifies a ProviderFailure.
type FailureReason string

const (
	ReasonTimeout   FailureReason = "timeout"
	ReasonStatus    FailureReason = "status"
	ReasonMalformed FailureReason = "malformed"
	ReasonTransport FailureReason = "transport"
)

// ProviderFailure is the failed branch of a provider call.
type ProviderFailure struct {
	Op     string
	Reason FailureReason
	Err    error
}

// NewFailure builds a ProviderFailure.
func NewFailure(op string, reason FailureReason, err error) *ProviderFailure {
	return &ProviderFailure{Op: op, Reason: reason, Err: err}
}

func (f *ProviderFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("measurement %s failed (%s)", f.Op, f.Reason)
	}
	return fmt.Sprintf("measurement %s failed (%s): %v", f.Op, f.Reason, f.Err)
}

func (f *ProviderFailure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a ProviderFailure from err. Errors of any other type are reported
// as transport failures so the selection policy can still fall back.
func AsFailure(op string, err error) *ProviderFailure {
	if err == nil {
		return nil
	}
	var failure *ProviderFailure
	if errors.As(err, &failure) {
		return failure
	}
	return NewFailure(op, ReasonTransport, err)
}
