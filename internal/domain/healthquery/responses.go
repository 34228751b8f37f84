package healthquery

import (
	"fmt"
	"strconv"

	"github.com/yanqian/health-voice/internal/domain/vitals"
)

const (
	normalOxygenThreshold = 95

	heartRatePrompt = "Please place your finger on the camera to measure your heart rate."
	oxygenPrompt    = "Please place your finger on the camera to measure your blood oxygen level."
	noTrendsMessage = "No previous measurements found. Take your first measurement using the camera feature."
	helpMessage     = "I can help you monitor your health using your phone camera. Try asking me to measure your heart rate, check your blood oxygen, or show your health trends."
)

func heartRateResponse(m vitals.Measurement) string {
	if !m.HasValue() {
		return heartRatePrompt
	}
	return fmt.Sprintf("Your heart rate is %s beats per minute. This appears to be within normal range.", formatNumber(m.Value))
}

func oxygenResponse(m vitals.Measurement) string {
	if !m.HasValue() {
		return oxygenPrompt
	}
	status := "below normal range"
	if m.Value >= normalOxygenThreshold {
		status = "normal"
	}
	return fmt.Sprintf("Your blood oxygen level is %s percent. This is %s.", formatNumber(m.Value), status)
}

// trendsResponse only looks at the latest point.
func trendsResponse(series vitals.TrendSeries) string {
	latest, ok := series.Latest()
	if !ok {
		return noTrendsMessage
	}
	trend := latest.Trend
	if trend == "" {
		trend = vitals.TrendStable
	}
	return fmt.Sprintf("Your recent average heart rate is %s BPM. Your readings have been %s over the past week.", formatNumber(latest.AvgHeartRate), trend)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
