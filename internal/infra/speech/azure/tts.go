package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/yanqian/health-voice/internal/domain/voice"
)

// Synthesize implements voice.TextToSpeech.
func (c *Client) Synthesize(ctx context.Context, text, locale, voiceName string) (voice.SynthesizedAudio, error) {
	if err := c.checkKey(); err != nil {
		return voice.SynthesizedAudio{}, err
	}
	ssml, err := buildSSML(text, locale, voiceName)
	if err != nil {
		return voice.SynthesizedAudio{}, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", c.cfg.APIKey).
		SetHeader("Content-Type", "application/ssml+xml").
		SetHeader("X-Microsoft-OutputFormat", c.cfg.OutputFormat).
		SetBody(ssml).
		Post(c.cfg.TTSEndpoint)
	if err != nil {
		return voice.SynthesizedAudio{}, fmt.Errorf("synthesis request failed: %w", err)
	}
	if err := checkStatus("synthesis", resp); err != nil {
		return voice.SynthesizedAudio{}, err
	}
	data := resp.Body()
	if len(data) == 0 {
		return voice.SynthesizedAudio{}, fmt.Errorf("synthesis returned no audio")
	}
	mimeType := resp.Header().Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeForFormat(c.cfg.OutputFormat)
	}
	return voice.SynthesizedAudio{Data: data, MimeType: mimeType}, nil
}

func buildSSML(text, locale, voiceName string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("escape ssml text: %w", err)
	}
	var attrs [2]bytes.Buffer
	_ = xml.EscapeText(&attrs[0], []byte(locale))
	_ = xml.EscapeText(&attrs[1], []byte(voiceName))
	return fmt.Sprintf(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice xml:lang="%s" name="%s">%s</voice></speak>`,
		attrs[0].String(), attrs[0].String(), attrs[1].String(), escaped.String()), nil
}

func mimeForFormat(format string) string {
	switch {
	case strings.Contains(format, "mp3"):
		return "audio/mpeg"
	case strings.Contains(format, "riff"), strings.Contains(format, "pcm"):
		return "audio/wav"
	case strings.Contains(format, "opus"), strings.Contains(format, "ogg"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

var _ voice.TextToSpeech = (*Client)(nil)
