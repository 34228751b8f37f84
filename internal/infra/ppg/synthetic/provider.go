package synthetic

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/pkg/util"
)

const (
	heartRateConfidence = 0.95
	oxygenConfidence    = 0.92
	heartRateJitter     = 3
	oxygenJitter        = 1
)

// Provider generates plausible readings around each profile's baseline. It never fails.
type Provider struct {
	profiles *ProfileTable
	logger   *slog.Logger
	intn     func(n int) int
	now      func() time.Time
	newID    func() string
}

// NewProvider builds a synthetic provider over profiles.
func NewProvider(profiles *ProfileTable, logger *slog.Logger) *Provider {
	return &Provider{
		profiles: profiles,
		logger:   logger.With("component", "ppg.synthetic"),
		intn:     rand.Intn,
		now:      util.NowUTC,
		newID:    uuid.NewString,
	}
}

// LookupProfile exposes the profile table policy.
func (p *Provider) LookupProfile(userID string) (vitals.UserProfile, bool) {
	profile, usedDefault := p.profiles.LookupProfile(userID)
	if usedDefault {
		p.logger.Debug("unknown user, serving default profile", "user_id", userID, "default_id", profile.UserID)
	}
	return profile, usedDefault
}

// MeasureHeartRate jitters the baseline heart rate by up to three beats either way.
func (p *Provider) MeasureHeartRate(_ context.Context, userID string) (vitals.Measurement, error) {
	profile, _ := p.LookupProfile(userID)
	return vitals.Measurement{
		Kind:          vitals.KindHeartRate,
		Value:         profile.CurrentHeartRate + p.jitter(heartRateJitter),
		Confidence:    heartRateConfidence,
		MeasurementID: "hr-" + p.newID(),
		Timestamp:     util.FormatISO(p.now()),
		Status:        vitals.StatusCompleted,
	}, nil
}

// MeasureOxygen jitters the baseline saturation by up to one point, capped at 100.
func (p *Provider) MeasureOxygen(_ context.Context, userID string) (vitals.Measurement, error) {
	profile, _ := p.LookupProfile(userID)
	return vitals.Measurement{
		Kind:          vitals.KindOxygen,
		Value:         min(100, profile.CurrentOxygen+p.jitter(oxygenJitter)),
		Confidence:    oxygenConfidence,
		MeasurementID: "ox-" + p.newID(),
		Timestamp:     util.FormatISO(p.now()),
		Status:        vitals.StatusCompleted,
	}, nil
}

// Trends returns the profile's stored history.
func (p *Provider) Trends(_ context.Context, userID string) (vitals.TrendSeries, error) {
	profile, _ := p.LookupProfile(userID)
	return profile.Trends, nil
}

// Summary aggregates the profile without taking a new reading.
func (p *Provider) Summary(userID string) vitals.Summary {
	profile, _ := p.LookupProfile(userID)
	return vitals.Summary{
		AvgHeartRate:      profile.CurrentHeartRate,
		AvgOxygen:         profile.CurrentOxygen,
		TotalMeasurements: len(profile.Trends),
		LastMeasurement:   profile.LastMeasurement,
	}
}

// jitter returns a uniform integer in [-spread, +spread].
func (p *Provider) jitter(spread int) float64 {
	return float64(p.intn(2*spread+1) - spread)
}

var (
	_ vitals.Provider      = (*Provider)(nil)
	_ vitals.SummarySource = (*Provider)(nil)
)
