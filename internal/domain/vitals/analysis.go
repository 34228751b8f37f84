package vitals

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/health-voice/pkg/util"
)

// StandardRecommendations is the general guidance attached to every analysis.
var StandardRecommendations = []string{
	"Continue regular monitoring",
	"Maintain healthy lifestyle",
	"Consider daily measurements",
}

const overallStatusNormal = "normal"

// SummarySource aggregates a user's stored history without taking a reading.
type SummarySource interface {
	Summary(userID string) Summary
}

// Analyzer takes both readings through the selection policy and attaches the
// stored summary and standing recommendations.
type Analyzer struct {
	selector  *Selector
	summaries SummarySource
	now       func() time.Time
	newID     func() string
}

// NewAnalyzer builds an Analyzer over the selector.
func NewAnalyzer(selector *Selector, summaries SummarySource) *Analyzer {
	return &Analyzer{
		selector:  selector,
		summaries: summaries,
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

// AnalyzeVitals measures heart rate then oxygen for userID.
func (a *Analyzer) AnalyzeVitals(ctx context.Context, userID string) (Analysis, error) {
	hr, err := a.selector.MeasureHeartRate(ctx, userID)
	if err != nil {
		return Analysis{}, err
	}
	ox, err := a.selector.MeasureOxygen(ctx, userID)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		UserID:          userID,
		HeartRate:       hr.Measurement.Value,
		HeartRateSource: hr.Source,
		OxygenLevel:     ox.Measurement.Value,
		OxygenSource:    ox.Source,
		OverallStatus:   overallStatusNormal,
		Recommendations: append([]string(nil), StandardRecommendations...),
		Summary:         a.summaries.Summary(userID),
		MeasurementID:   "full-" + a.newID(),
		Timestamp:       util.FormatISO(a.now()),
	}, nil
}
