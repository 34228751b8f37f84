package vitals

// Kind identifies which vital sign a Measurement carries.
type Kind string

const (
	KindHeartRate Kind = "heart_rate"
	KindOxygen    Kind = "oxygen"
)

// StatusCompleted is the only status a finished measurement reports.
const StatusCompleted = "completed"

// Trend labels used by TrendPoint.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Measurement is a single vital-sign reading. Heart rate is in beats per minute,
// oxygen is a saturation percentage.
type Measurement struct {
	Kind          Kind    `json:"kind"`
	Value         float64 `json:"value"`
	Confidence    float64 `json:"confidence"`
	MeasurementID string  `json:"measurementId"`
	Timestamp     string  `json:"timestamp"`
	Status        string  `json:"status"`
}

// HasValue reports whether the device produced a usable number.
func (m Measurement) HasValue() bool {
	return m.Value > 0
}

// normalized enforces the confidence and oxygen bounds regardless of which provider answered.
func (m Measurement) normalized() Measurement {
	switch {
	case m.Confidence < 0:
		m.Confidence = 0
	case m.Confidence > 1:
		m.Confidence = 1
	}
	if m.Kind == KindOxygen && m.Value > 100 {
		m.Value = 100
	}
	return m
}

// TrendPoint is one day of averaged readings.
type TrendPoint struct {
	Date         string  `json:"date"`
	AvgHeartRate float64 `json:"avgHeartRate"`
	AvgOxygen    float64 `json:"avgOxygen"`
	Trend        string  `json:"trend"`
}

// TrendSeries is ordered chronologically; the last point is the most recent.
type TrendSeries []TrendPoint

// Latest returns the most recent point.
func (s TrendSeries) Latest() (TrendPoint, bool) {
	if len(s) == 0 {
		return TrendPoint{}, false
	}
	return s[len(s)-1], true
}

// UserProfile backs the synthetic provider.
type UserProfile struct {
	UserID           string      `json:"userId"`
	CurrentHeartRate float64     `json:"currentHeartRate"`
	CurrentOxygen    float64     `json:"currentOxygen"`
	Trends           TrendSeries `json:"trends"`
	LastMeasurement  string      `json:"lastMeasurement"`
}

// Summary aggregates a profile's history.
type Summary struct {
	AvgHeartRate      float64 `json:"avgHeartRate"`
	AvgOxygen         float64 `json:"avgOxygen"`
	TotalMeasurements int     `json:"totalMeasurements"`
	LastMeasurement   string  `json:"lastMeasurement"`
}

// Analysis combines both measurements with general guidance.
type Analysis struct {
	UserID          string   `json:"userId"`
	HeartRate       float64  `json:"heartRate"`
	HeartRateSource Source   `json:"heartRateSource"`
	OxygenLevel     float64  `json:"oxygenLevel"`
	OxygenSource    Source   `json:"oxygenSource"`
	OverallStatus   string   `json:"overallStatus"`
	Recommendations []string `json:"recommendations"`
	Summary         Summary  `json:"summary"`
	MeasurementID   string   `json:"measurementId"`
	Timestamp       string   `json:"timestamp"`
}
