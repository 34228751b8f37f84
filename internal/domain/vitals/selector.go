package vitals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/health-voice/pkg/errors"
)

// Mode selects where measurements come from.
type Mode string

const (
	// ModeSynthetic answers every request from the synthetic provider.
	ModeSynthetic Mode = "synthetic"
	// ModeRemote calls the measurement service and degrades to synthetic data when it fails.
	ModeRemote Mode = "remote"
)

// ParseMode maps a configuration string onto a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeSynthetic:
		return ModeSynthetic, nil
	case ModeRemote, "":
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown measurement mode %q", raw)
	}
}

// Source tells which provider answered.
type Source string

const (
	SourceRemote    Source = "remote"
	SourceSynthetic Source = "synthetic"
	// SourceFallback marks synthetic data served because the remote provider failed.
	SourceFallback Source = "fallback"
)

// Reading is a measurement together with the provider that produced it.
type Reading struct {
	Measurement Measurement
	Source      Source
}

// History is a trend series together with the provider that produced it.
type History struct {
	Series TrendSeries
	Source Source
}

// Selector applies the provider-selection policy on top of the two providers.
type Selector struct {
	mode      Mode
	remote    Provider
	synthetic Provider
	logger    *slog.Logger
}

// NewSelector wires the policy. A nil remote provider forces synthetic mode.
func NewSelector(mode Mode, remote, synthetic Provider, logger *slog.Logger) *Selector {
	logger = logger.With("component", "vitals.selector")
	if mode == ModeRemote && remote == nil {
		logger.Warn("remote measurement provider missing, using synthetic mode")
		mode = ModeSynthetic
	}
	return &Selector{
		mode:      mode,
		remote:    remote,
		synthetic: synthetic,
		logger:    logger,
	}
}

// Mode reports the effective mode.
func (s *Selector) Mode() Mode {
	return s.mode
}

// MeasureHeartRate returns a heart-rate reading.
func (s *Selector) MeasureHeartRate(ctx context.Context, userID string) (Reading, error) {
	m, source, err := choose(ctx, s, OpHeartRate, userID, func(p Provider) (Measurement, error) {
		return p.MeasureHeartRate(ctx, userID)
	})
	if err != nil {
		return Reading{}, err
	}
	return Reading{Measurement: m.normalized(), Source: source}, nil
}

// MeasureOxygen returns a blood-oxygen reading.
func (s *Selector) MeasureOxygen(ctx context.Context, userID string) (Reading, error) {
	m, source, err := choose(ctx, s, OpOxygen, userID, func(p Provider) (Measurement, error) {
		return p.MeasureOxygen(ctx, userID)
	})
	if err != nil {
		return Reading{}, err
	}
	return Reading{Measurement: m.normalized(), Source: source}, nil
}

// Trends returns the user's trend history.
func (s *Selector) Trends(ctx context.Context, userID string) (History, error) {
	series, source, err := choose(ctx, s, OpTrends, userID, func(p Provider) (TrendSeries, error) {
		return p.Trends(ctx, userID)
	})
	if err != nil {
		return History{}, err
	}
	return History{Series: series, Source: source}, nil
}

func choose[T any](ctx context.Context, s *Selector, op, userID string, call func(Provider) (T, error)) (T, Source, error) {
	if s.mode == ModeSynthetic {
		out, err := call(s.synthetic)
		if err != nil {
			var zero T
			return zero, "", apperrors.Wrap(apperrors.CodeProviderFailed, "synthetic measurement failed", err)
		}
		return out, SourceSynthetic, nil
	}

	out, err := call(s.remote)
	if err == nil {
		return out, SourceRemote, nil
	}

	failure := AsFailure(op, err)
	s.logger.WarnContext(ctx, "measurement provider degraded, using synthetic data",
		"op", op, "reason", string(failure.Reason), "user_id", userID, "error", failure.Err)

	out, synthErr := call(s.synthetic)
	if synthErr != nil {
		var zero T
		return zero, "", apperrors.Wrap(apperrors.CodeProviderFailed, "remote and synthetic measurement failed",
			fmt.Errorf("%w; synthetic: %v", failure, synthErr))
	}
	return out, SourceFallback, nil
}
