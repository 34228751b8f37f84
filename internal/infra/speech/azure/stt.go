package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yanqian/health-voice/internal/domain/voice"
)

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Display string `json:"Display"`
	} `json:"NBest"`
}

// Recognize implements voice.SpeechToText using the short-audio REST endpoint.
func (c *Client) Recognize(ctx context.Context, audio []byte, contentType, locale string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.APIKey).
		SetHeader("Content-Type", contentType).
		SetHeader("Accept", "application/json").
		SetQueryParam("language", locale).
		SetQueryParam("format", "detailed").
		SetBody(audio).
		Post(c.cfg.STTEndpoint)
	if err != nil {
		return "", fmt.Errorf("recognition request failed: %w", err)
	}
	if err := checkStatus("recognition", resp); err != nil {
		return "", err
	}

	var parsed recognitionResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode recognition response: %w", err)
	}
	switch parsed.RecognitionStatus {
	case "Success":
		text := parsed.DisplayText
		if text == "" && len(parsed.NBest) > 0 {
			text = parsed.NBest[0].Display
		}
		return text, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		c.logger.InfoContext(ctx, "no speech recognized", "status", parsed.RecognitionStatus, "locale", locale)
		return "", nil
	default:
		return "", fmt.Errorf("recognition status %q", parsed.RecognitionStatus)
	}
}

var _ voice.SpeechToText = (*Client)(nil)
