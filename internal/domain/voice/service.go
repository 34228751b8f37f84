package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
	apperrors "github.com/yanqian/health-voice/pkg/errors"
)

const (
	defaultLanguage       = "zu"
	defaultVoice          = "zu-ZA-ThandoNeural"
	defaultMaxAudioBytes  = 10 << 20
	defaultAudioURLPrefix = "/audio/"
)

// Config drives locale selection and upload limits.
type Config struct {
	DefaultLanguage string
	DefaultVoice    string
	// Locales maps a language tag to a speech locale, e.g. zu -> zu-ZA.
	Locales map[string]string
	// Voices maps a speech locale to a neural voice name.
	Voices         map[string]string
	MaxAudioBytes  int64
	AudioURLPrefix string
}

// Request is one recorded voice query.
type Request struct {
	Audio        []byte
	ContentType  string
	UserLanguage string
	UserID       string
	Locale       string
	Voice        string
}

// Result carries the pipeline output and where its spoken form was stored.
type Result struct {
	Transcript string             `json:"transcript"`
	Result     healthquery.Result `json:"result"`
	AudioKey   string             `json:"audioKey"`
	AudioURL   string             `json:"audioUrl"`
	Locale     string             `json:"locale"`
	Voice      string             `json:"voice"`
}

// Service runs the speech round trip around the query pipeline.
type Service interface {
	Process(ctx context.Context, req Request) (Result, error)
	Audio(ctx context.Context, key string) (AudioObject, error)
}

type service struct {
	cfg      Config
	stt      SpeechToText
	tts      TextToSpeech
	pipeline healthquery.Service
	store    AudioStore
	logger   *slog.Logger
	newKey   func() string
}

// NewService constructs the voice service.
func NewService(cfg Config, stt SpeechToText, tts TextToSpeech, pipeline healthquery.Service, store AudioStore, logger *slog.Logger) Service {
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		cfg.DefaultLanguage = defaultLanguage
	}
	if strings.TrimSpace(cfg.DefaultVoice) == "" {
		cfg.DefaultVoice = defaultVoice
	}
	if cfg.Locales == nil {
		cfg.Locales = map[string]string{"zu": "zu-ZA", "en": "en-US"}
	}
	if cfg.Voices == nil {
		cfg.Voices = map[string]string{"zu-ZA": "zu-ZA-ThandoNeural", "en-US": "en-US-JennyNeural"}
	}
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = defaultMaxAudioBytes
	}
	if cfg.AudioURLPrefix == "" {
		cfg.AudioURLPrefix = defaultAudioURLPrefix
	}
	return &service{
		cfg:      cfg,
		stt:      stt,
		tts:      tts,
		pipeline: pipeline,
		store:    store,
		logger:   logger.With("component", "voice.service"),
		newKey:   uuid.NewString,
	}
}

func (s *service) Process(ctx context.Context, req Request) (Result, error) {
	if len(req.Audio) == 0 {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "audio is required", nil)
	}
	if int64(len(req.Audio)) > s.cfg.MaxAudioBytes {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "audio exceeds maximum allowed size", nil)
	}
	language := strings.TrimSpace(req.UserLanguage)
	if language == "" {
		language = s.cfg.DefaultLanguage
	}
	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = s.localeFor(language)
	}
	voiceName := strings.TrimSpace(req.Voice)
	if voiceName == "" {
		voiceName = s.voiceFor(locale)
	}

	transcript, err := s.stt.Recognize(ctx, req.Audio, req.ContentType, locale)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeSpeechFailed, "speech recognition failed", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "no speech recognized", nil)
	}
	s.logger.InfoContext(ctx, "speech recognized", "locale", locale, "chars", len(transcript))

	result, err := s.pipeline.Handle(ctx, healthquery.Query{Text: transcript, UserLanguage: language, UserID: req.UserID})
	if err != nil {
		return Result{}, err
	}

	audio, err := s.tts.Synthesize(ctx, result.TranslatedResponse, locale, voiceName)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeSpeechFailed, "speech synthesis failed", err)
	}

	key := "responses/" + s.newKey() + extensionFor(audio.MimeType)
	stored, err := s.store.Put(ctx, key, audio.Data, audio.MimeType)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeStorageFailed, "failed to store response audio", err)
	}
	url := stored.URL
	if url == "" {
		url = s.cfg.AudioURLPrefix + stored.Key
	}

	return Result{
		Transcript: transcript,
		Result:     result,
		AudioKey:   stored.Key,
		AudioURL:   url,
		Locale:     locale,
		Voice:      voiceName,
	}, nil
}

func (s *service) Audio(ctx context.Context, key string) (AudioObject, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return AudioObject{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid audio key", nil)
	}
	obj, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, ErrAudioNotFound) {
			return AudioObject{}, apperrors.Wrap(apperrors.CodeNotFound, "audio not found", err)
		}
		return AudioObject{}, apperrors.Wrap(apperrors.CodeStorageFailed, "failed to read audio", err)
	}
	return obj, nil
}

func (s *service) localeFor(language string) string {
	if locale, ok := s.cfg.Locales[language]; ok {
		return locale
	}
	return language
}

func (s *service) voiceFor(locale string) string {
	if name, ok := s.cfg.Voices[locale]; ok {
		return name
	}
	return s.cfg.DefaultVoice
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ""
	}
}
