package voice

import (
	"context"
	"errors"
	"io"
)

// ErrAudioNotFound is returned by AudioStore.Open for unknown keys.
var ErrAudioNotFound = errors.New("audio not found")

// SpeechToText turns recorded speech into text. An empty transcript means nothing was recognized.
type SpeechToText interface {
	Recognize(ctx context.Context, audio []byte, contentType, locale string) (string, error)
}

// TextToSpeech renders text as audio in the given voice.
type TextToSpeech interface {
	Synthesize(ctx context.Context, text, locale, voice string) (SynthesizedAudio, error)
}

// SynthesizedAudio is one rendered clip.
type SynthesizedAudio struct {
	Data     []byte
	MimeType string
}

// AudioStore persists synthesized clips.
type AudioStore interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredAudio, error)
	Open(ctx context.Context, key string) (AudioObject, error)
}

// StoredAudio describes a persisted clip. URL is set when the store can hand out direct links.
type StoredAudio struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url,omitempty"`
}

// AudioObject is an open clip. Callers close Body.
type AudioObject struct {
	StoredAudio
	Body io.ReadCloser
}
