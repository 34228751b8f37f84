package azure

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultOutputFormat = "audio-16khz-128kbitrate-mono-mp3"
	defaultContentType  = "audio/wav; codecs=audio/pcm; samplerate=16000"
	userAgent           = "health-voice"
)

// Config controls both speech endpoints.
type Config struct {
	APIKey string
	Region string
	// STTEndpoint and TTSEndpoint override the regional defaults.
	STTEndpoint  string
	TTSEndpoint  string
	OutputFormat string
	Timeout      time.Duration
}

// Client talks to Azure Speech for recognition and synthesis.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

// NewClient builds a speech client. A missing key is reported on first use.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "southafricanorth"
	}
	if strings.TrimSpace(cfg.STTEndpoint) == "" {
		cfg.STTEndpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region)
	}
	if strings.TrimSpace(cfg.TTSEndpoint) == "" {
		cfg.TTSEndpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	logger = logger.With("component", "speech.azure")
	return &Client{
		cfg: cfg,
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(0).
			SetHeader("User-Agent", userAgent),
		logger: logger,
	}
}

func (c *Client) checkKey() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return fmt.Errorf("speech api key is not configured")
	}
	return nil
}

func checkStatus(op string, resp *resty.Response) error {
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		body := resp.Body()
		if len(body) > 4<<10 {
			body = body[:4<<10]
		}
		return fmt.Errorf("%s request error: status=%d body=%s", op, code, string(body))
	}
	return nil
}
