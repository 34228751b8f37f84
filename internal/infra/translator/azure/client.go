package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
)

const (
	defaultEndpoint   = "https://api.cognitive.microsofttranslator.com"
	defaultAPIVersion = "3.0"
)

// Config controls the Azure Translator client.
type Config struct {
	Endpoint   string
	APIKey     string
	Region     string
	APIVersion string
	Timeout    time.Duration
}

// Client calls the Azure Translator text API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	newTraceID func() string
}

// NewClient builds a translator client. A missing key is reported on first use.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(endpoint, "/")
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:     logger.With("component", "translator.azure"),
		newTraceID: uuid.NewString,
	}
}

// Translate implements healthquery.Translator.
func (c *Client) Translate(ctx context.Context, text, from, to string) (string, error) {
	out, err := c.translate(ctx, text, from, to)
	if err != nil {
		c.logger.WarnContext(ctx, "translation failed", "from", from, "to", to, "error", err)
		return "", &healthquery.TranslationError{From: from, To: to, Err: err}
	}
	return out, nil
}

func (c *Client) translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("translator api key is not configured")
	}

	query := url.Values{}
	query.Set("api-version", c.cfg.APIVersion)
	query.Set("from", from)
	query.Set("to", to)
	endpoint := fmt.Sprintf("%s/translate?%s", c.cfg.Endpoint, query.Encode())

	body, err := json.Marshal([]requestItem{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("encode translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)
	if c.cfg.Region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", c.cfg.Region)
	}
	req.Header.Set("X-ClientTraceId", c.newTraceID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("translate request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var parsed []responseItem
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	if len(parsed) == 0 || len(parsed[0].Translations) == 0 || parsed[0].Translations[0].Text == nil {
		return "", errors.New("translate response missing translation text")
	}
	return *parsed[0].Translations[0].Text, nil
}

type requestItem struct {
	Text string `json:"text"`
}

type responseItem struct {
	Translations []translation `json:"translations"`
}

type translation struct {
	Text *string `json:"text"`
	To   string  `json:"to"`
}

var _ healthquery.Translator = (*Client)(nil)
