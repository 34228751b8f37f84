package vitals

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/health-voice/pkg/errors"
)

func TestSelectorSyntheticModeNeverCallsRemote(t *testing.T) {
	remote := &stubProvider{err: errors.New("should not be called")}
	synthetic := &stubProvider{measurement: Measurement{Kind: KindHeartRate, Value: 71, Confidence: 0.95}}

	sel := NewSelector(ModeSynthetic, remote, synthetic, newTestLogger(nil))
	reading, err := sel.MeasureHeartRate(context.Background(), "demo-user")

	require.NoError(t, err)
	require.Equal(t, SourceSynthetic, reading.Source)
	require.Equal(t, 71.0, reading.Measurement.Value)
	require.Zero(t, remote.calls)
	require.Equal(t, 1, synthetic.calls)
}

func TestSelectorRemoteSuccess(t *testing.T) {
	remote := &stubProvider{series: TrendSeries{{Date: "2025-08-02", AvgHeartRate: 80, Trend: TrendImproving}}}
	synthetic := &stubProvider{}

	sel := NewSelector(ModeRemote, remote, synthetic, newTestLogger(nil))
	history, err := sel.Trends(context.Background(), "u1")

	require.NoError(t, err)
	require.Equal(t, SourceRemote, history.Source)
	require.Len(t, history.Series, 1)
	require.Zero(t, synthetic.calls)
}

func TestSelectorFallsBackAndLogsDegradedService(t *testing.T) {
	var logs bytes.Buffer
	remote := &stubProvider{err: NewFailure(OpOxygen, ReasonTimeout, context.DeadlineExceeded)}
	synthetic := &stubProvider{measurement: Measurement{Kind: KindOxygen, Value: 98, Confidence: 0.92}}

	sel := NewSelector(ModeRemote, remote, synthetic, newTestLogger(&logs))
	reading, err := sel.MeasureOxygen(context.Background(), "u1")

	require.NoError(t, err)
	require.Equal(t, SourceFallback, reading.Source)
	require.Equal(t, 98.0, reading.Measurement.Value)
	require.Equal(t, 1, remote.calls)
	require.Equal(t, 1, synthetic.calls)
	require.Contains(t, logs.String(), "measurement provider degraded")
	require.Contains(t, logs.String(), "reason=timeout")
}

func TestSelectorFallbackOnUntypedError(t *testing.T) {
	remote := &stubProvider{err: errors.New("connection refused")}
	synthetic := &stubProvider{measurement: Measurement{Kind: KindHeartRate, Value: 70}}

	sel := NewSelector(ModeRemote, remote, synthetic, newTestLogger(nil))
	reading, err := sel.MeasureHeartRate(context.Background(), "u1")

	require.NoError(t, err)
	require.Equal(t, SourceFallback, reading.Source)
}

func TestSelectorBothProvidersFail(t *testing.T) {
	remote := &stubProvider{err: errors.New("down")}
	synthetic := &stubProvider{err: errors.New("also down")}

	sel := NewSelector(ModeRemote, remote, synthetic, newTestLogger(nil))
	_, err := sel.MeasureHeartRate(context.Background(), "u1")

	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeProviderFailed))
}

func TestSelectorWithoutRemoteUsesSynthetic(t *testing.T) {
	sel := NewSelector(ModeRemote, nil, &stubProvider{}, newTestLogger(nil))
	require.Equal(t, ModeSynthetic, sel.Mode())
}

func TestSelectorNormalizesBounds(t *testing.T) {
	remote := &stubProvider{measurement: Measurement{Kind: KindOxygen, Value: 103, Confidence: 1.7}}

	sel := NewSelector(ModeRemote, remote, &stubProvider{}, newTestLogger(nil))
	reading, err := sel.MeasureOxygen(context.Background(), "u1")

	require.NoError(t, err)
	require.Equal(t, 100.0, reading.Measurement.Value)
	require.Equal(t, 1.0, reading.Measurement.Confidence)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Synthetic ")
	require.NoError(t, err)
	require.Equal(t, ModeSynthetic, mode)

	mode, err = ParseMode("")
	require.NoError(t, err)
	require.Equal(t, ModeRemote, mode)

	_, err = ParseMode("mock")
	require.Error(t, err)
}

func TestAsFailureKeepsTypedFailure(t *testing.T) {
	typed := NewFailure(OpTrends, ReasonMalformed, errors.New("bad json"))
	require.Same(t, typed, AsFailure(OpTrends, typed))
	require.Equal(t, ReasonTransport, AsFailure(OpTrends, errors.New("x")).Reason)
	require.Nil(t, AsFailure(OpTrends, nil))
}

func TestTrendSeriesLatest(t *testing.T) {
	_, ok := TrendSeries{}.Latest()
	require.False(t, ok)

	latest, ok := TrendSeries{{Date: "a"}, {Date: "b"}}.Latest()
	require.True(t, ok)
	require.Equal(t, "b", latest.Date)
}

type stubProvider struct {
	measurement Measurement
	series      TrendSeries
	err         error
	calls       int
}

func (s *stubProvider) MeasureHeartRate(ctx context.Context, userID string) (Measurement, error) {
	s.calls++
	return s.measurement, s.err
}

func (s *stubProvider) MeasureOxygen(ctx context.Context, userID string) (Measurement, error) {
	s.calls++
	return s.measurement, s.err
}

func (s *stubProvider) Trends(ctx context.Context, userID string) (TrendSeries, error) {
	s.calls++
	return s.series, s.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	if buf == nil {
		return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	}
	return slog.New(slog.NewTextHandler(buf, nil))
}
