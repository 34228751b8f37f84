package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/pkg/util"
)

const (
	defaultBaseURL     = "http://localhost:8080"
	defaultTimeout     = 5 * time.Second
	defaultTriggeredBy = "voice"

	heartRatePath = "/api/ppg/heartrate"
	oxygenPath    = "/api/ppg/oxygen"
	trendsPath    = "/api/health/trends"
)

// Config controls the measurement service client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	TriggeredBy string
}

// Client calls the external PPG measurement service.
type Client struct {
	http        *resty.Client
	triggeredBy string
	logger      *slog.Logger
	now         func() time.Time
}

// NewClient builds a client. Requests never retry; the timeout bounds the whole call.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	triggeredBy := strings.TrimSpace(cfg.TriggeredBy)
	if triggeredBy == "" {
		triggeredBy = defaultTriggeredBy
	}
	logger = logger.With("component", "ppg.remote")

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger: logger})

	return &Client{
		http:        httpClient,
		triggeredBy: triggeredBy,
		logger:      logger,
		now:         util.NowUTC,
	}
}

type measureRequest struct {
	UserID      string `json:"userId"`
	TriggeredBy string `json:"triggeredBy"`
}

type measurePayload struct {
	HeartRate     *float64 `json:"heartRate"`
	OxygenLevel   *float64 `json:"oxygenLevel"`
	Confidence    *float64 `json:"confidence"`
	MeasurementID string   `json:"measurementId"`
	Timestamp     string   `json:"timestamp"`
	Status        string   `json:"status"`
}

type trendPayload struct {
	Date         string  `json:"date"`
	AvgHeartRate float64 `json:"avgHeartRate"`
	AvgOxygen    float64 `json:"avgOxygen"`
	Trend        string  `json:"trend"`
}

// MeasureHeartRate triggers a heart-rate measurement.
func (c *Client) MeasureHeartRate(ctx context.Context, userID string) (vitals.Measurement, error) {
	payload, err := c.measure(ctx, vitals.OpHeartRate, heartRatePath, userID)
	if err != nil {
		return vitals.Measurement{}, err
	}
	if payload.HeartRate == nil {
		return vitals.Measurement{}, vitals.NewFailure(vitals.OpHeartRate, vitals.ReasonMalformed, errors.New("heartRate missing from response"))
	}
	return c.toMeasurement(vitals.KindHeartRate, "hr-", *payload.HeartRate, payload), nil
}

// MeasureOxygen triggers a blood-oxygen measurement.
func (c *Client) MeasureOxygen(ctx context.Context, userID string) (vitals.Measurement, error) {
	payload, err := c.measure(ctx, vitals.OpOxygen, oxygenPath, userID)
	if err != nil {
		return vitals.Measurement{}, err
	}
	if payload.OxygenLevel == nil {
		return vitals.Measurement{}, vitals.NewFailure(vitals.OpOxygen, vitals.ReasonMalformed, errors.New("oxygenLevel missing from response"))
	}
	return c.toMeasurement(vitals.KindOxygen, "ox-", *payload.OxygenLevel, payload), nil
}

// Trends fetches the user's daily history in chronological order.
func (c *Client) Trends(ctx context.Context, userID string) (vitals.TrendSeries, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("userId", userID).
		Get(trendsPath)
	if err != nil {
		return nil, classify(vitals.OpTrends, err)
	}
	if err := checkStatus(vitals.OpTrends, resp); err != nil {
		return nil, err
	}

	var points []trendPayload
	if err := json.Unmarshal(resp.Body(), &points); err != nil {
		return nil, vitals.NewFailure(vitals.OpTrends, vitals.ReasonMalformed, fmt.Errorf("decode trends: %w", err))
	}

	series := make(vitals.TrendSeries, 0, len(points))
	for _, pt := range points {
		trend := strings.TrimSpace(pt.Trend)
		if trend == "" {
			trend = vitals.TrendStable
		}
		series = append(series, vitals.TrendPoint{
			Date:         pt.Date,
			AvgHeartRate: pt.AvgHeartRate,
			AvgOxygen:    pt.AvgOxygen,
			Trend:        trend,
		})
	}
	c.logger.DebugContext(ctx, "trends fetched", "user_id", userID, "points", len(series))
	return series, nil
}

func (c *Client) measure(ctx context.Context, op, path, userID string) (measurePayload, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(measureRequest{UserID: userID, TriggeredBy: c.triggeredBy}).
		Post(path)
	if err != nil {
		return measurePayload{}, classify(op, err)
	}
	if err := checkStatus(op, resp); err != nil {
		return measurePayload{}, err
	}

	var payload measurePayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return measurePayload{}, vitals.NewFailure(op, vitals.ReasonMalformed, fmt.Errorf("decode measurement: %w", err))
	}
	return payload, nil
}

func (c *Client) toMeasurement(kind vitals.Kind, idPrefix string, value float64, payload measurePayload) vitals.Measurement {
	m := vitals.Measurement{
		Kind:          kind,
		Value:         value,
		MeasurementID: payload.MeasurementID,
		Timestamp:     payload.Timestamp,
		Status:        payload.Status,
	}
	if payload.Confidence != nil {
		m.Confidence = *payload.Confidence
	}
	if m.MeasurementID == "" {
		m.MeasurementID = idPrefix + uuid.NewString()
	}
	if m.Timestamp == "" {
		m.Timestamp = util.FormatISO(c.now())
	}
	if m.Status == "" {
		m.Status = vitals.StatusCompleted
	}
	return m
}

func checkStatus(op string, resp *resty.Response) error {
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		body := resp.Body()
		if len(body) > 4<<10 {
			body = body[:4<<10]
		}
		return vitals.NewFailure(op, vitals.ReasonStatus, fmt.Errorf("status=%d body=%s", code, string(body)))
	}
	return nil
}

func classify(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return vitals.NewFailure(op, vitals.ReasonTimeout, err)
	}
	return vitals.NewFailure(op, vitals.ReasonTransport, err)
}

// restyLogger routes resty's internal messages into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

var _ vitals.Provider = (*Client)(nil)
