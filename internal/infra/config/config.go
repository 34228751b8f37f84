package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Measurement modes accepted by measurement.mode.
const (
	MeasurementModeRemote    = "remote"
	MeasurementModeSynthetic = "synthetic"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Query       QueryConfig       `yaml:"query"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Translator  TranslatorConfig  `yaml:"translator"`
	Speech      SpeechConfig      `yaml:"speech"`
	Audio       AudioConfig       `yaml:"audio"`
	Audit       AuditConfig       `yaml:"audit"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	CORS         CORSConfig      `yaml:"cors"`
	Auth         AuthConfig      `yaml:"auth"`
}

// RateLimitConfig drives the request limiting middleware. VoiceCost is the
// number of tokens a voice query consumes; text queries consume one.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
	VoiceCost         int  `yaml:"voiceCost"`
}

// CORSConfig lists the origins allowed to call the API. Empty allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// AuthConfig enables bearer tokens when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// QueryConfig holds request defaults for the query pipeline.
type QueryConfig struct {
	DefaultLanguage string `yaml:"defaultLanguage"`
	DefaultUserID   string `yaml:"defaultUserId"`
	HistoryLimit    int    `yaml:"historyLimit"`
}

// MeasurementConfig selects and configures the measurement provider.
type MeasurementConfig struct {
	Mode        string        `yaml:"mode"`
	ServiceURL  string        `yaml:"serviceUrl"`
	Timeout     time.Duration `yaml:"timeout"`
	TriggeredBy string        `yaml:"triggeredBy"`
}

// TranslatorConfig contains Azure Translator settings.
type TranslatorConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"apiKey"`
	Region     string        `yaml:"region"`
	APIVersion string        `yaml:"apiVersion"`
	Timeout    time.Duration `yaml:"timeout"`
	Retry      RetryConfig   `yaml:"retry"`
	Cache      CacheConfig   `yaml:"cache"`
}

// RetryConfig configures retries of failed translations.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// CacheConfig controls the translation cache. Addr selects Valkey, otherwise memory is used.
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	TTL            time.Duration `yaml:"ttl"`
	MemoryCapacity int           `yaml:"memoryCapacity"`
}

// SpeechConfig contains Azure Speech settings.
type SpeechConfig struct {
	APIKey        string        `yaml:"apiKey"`
	Region        string        `yaml:"region"`
	STTEndpoint   string        `yaml:"sttEndpoint"`
	TTSEndpoint   string        `yaml:"ttsEndpoint"`
	DefaultVoice  string        `yaml:"defaultVoice"`
	OutputFormat  string        `yaml:"outputFormat"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxAudioBytes int64         `yaml:"maxAudioBytes"`
	// Locales maps language tags to speech locales.
	Locales map[string]string `yaml:"locales"`
	// Voices maps speech locales to voice names.
	Voices map[string]string `yaml:"voices"`
}

// AudioConfig selects where synthesized clips are kept.
type AudioConfig struct {
	R2 R2Config `yaml:"r2"`
	// MemoryCapacity bounds the number of clips kept when R2 is not configured.
	MemoryCapacity int `yaml:"memoryCapacity"`
}

// R2Config holds Cloudflare R2 credentials. Storage falls back to memory when Bucket is empty.
type R2Config struct {
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"accessKey"`
	SecretKey  string        `yaml:"secretKey"`
	Bucket     string        `yaml:"bucket"`
	Region     string        `yaml:"region"`
	PresignTTL time.Duration `yaml:"presignTtl"`
}

// AuditConfig selects the query audit log backend.
type AuditConfig struct {
	Postgres       PostgresConfig `yaml:"postgres"`
	MemoryCapacity int            `yaml:"memoryCapacity"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_VOICE_COST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.VoiceCost = parsed
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.HTTP.Auth.JWTSecret = v
	}
	if v := os.Getenv("DEFAULT_LANGUAGE"); v != "" {
		cfg.Query.DefaultLanguage = v
	}
	if v := os.Getenv("USE_MOCK_PPG"); v != "" {
		if parseBool(v) {
			cfg.Measurement.Mode = MeasurementModeSynthetic
		} else {
			cfg.Measurement.Mode = MeasurementModeRemote
		}
	}
	if v := os.Getenv("PPG_SERVICE_URL"); v != "" {
		cfg.Measurement.ServiceURL = v
	}
	if v := os.Getenv("PPG_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Measurement.Timeout = parsed
		}
	}
	if v := os.Getenv("AZURE_TRANSLATOR_KEY"); v != "" {
		cfg.Translator.APIKey = v
	}
	if v := os.Getenv("AZURE_TRANSLATOR_ENDPOINT"); v != "" {
		cfg.Translator.Endpoint = v
	}
	if v := os.Getenv("AZURE_TRANSLATOR_REGION"); v != "" {
		cfg.Translator.Region = v
	}
	if v := os.Getenv("TRANSLATOR_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Translator.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("TRANSLATOR_CACHE_ENABLED"); v != "" {
		cfg.Translator.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("TRANSLATOR_CACHE_ADDR"); v != "" {
		cfg.Translator.Cache.Addr = v
	}
	if v := os.Getenv("TRANSLATOR_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Translator.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("AZURE_SPEECH_KEY"); v != "" {
		cfg.Speech.APIKey = v
	}
	if v := os.Getenv("AZURE_SPEECH_REGION"); v != "" {
		cfg.Speech.Region = v
	}
	if v := os.Getenv("AUDIO_R2_ENDPOINT"); v != "" {
		cfg.Audio.R2.Endpoint = v
	}
	if v := os.Getenv("AUDIO_R2_ACCESS_KEY"); v != "" {
		cfg.Audio.R2.AccessKey = v
	}
	if v := os.Getenv("AUDIO_R2_SECRET_KEY"); v != "" {
		cfg.Audio.R2.SecretKey = v
	}
	if v := os.Getenv("AUDIO_R2_BUCKET"); v != "" {
		cfg.Audio.R2.Bucket = v
	}
	if v := os.Getenv("AUDIO_R2_REGION"); v != "" {
		cfg.Audio.R2.Region = v
	}
	if v := os.Getenv("AUDIO_R2_PRESIGN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Audio.R2.PresignTTL = parsed
		}
	}
	if v := os.Getenv("AUDIT_POSTGRES_DSN"); v != "" {
		cfg.Audit.Postgres.DSN = v
	}
	if v := os.Getenv("AUDIT_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Audit.Postgres.MaxConns = int32(parsed)
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":3000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
				VoiceCost:         5,
			},
			Auth: AuthConfig{
				Issuer: "health-voice",
			},
		},
		Query: QueryConfig{
			DefaultLanguage: "zu",
			DefaultUserID:   "demo-user",
			HistoryLimit:    20,
		},
		Measurement: MeasurementConfig{
			Mode:        MeasurementModeRemote,
			ServiceURL:  "http://localhost:8080",
			Timeout:     5 * time.Second,
			TriggeredBy: "voice",
		},
		Translator: TranslatorConfig{
			Endpoint:   "https://api.cognitive.microsofttranslator.com",
			Region:     "southafricanorth",
			APIVersion: "3.0",
			Timeout:    10 * time.Second,
			Retry: RetryConfig{
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
			},
			Cache: CacheConfig{
				TTL:            24 * time.Hour,
				MemoryCapacity: 10000,
			},
		},
		Speech: SpeechConfig{
			Region:        "southafricanorth",
			DefaultVoice:  "zu-ZA-ThandoNeural",
			OutputFormat:  "audio-16khz-128kbitrate-mono-mp3",
			Timeout:       15 * time.Second,
			MaxAudioBytes: 10 << 20,
			Locales: map[string]string{
				"zu": "zu-ZA",
				"en": "en-US",
			},
			Voices: map[string]string{
				"zu-ZA": "zu-ZA-ThandoNeural",
				"en-US": "en-US-JennyNeural",
			},
		},
		Audio: AudioConfig{
			R2: R2Config{
				Region:     "auto",
				PresignTTL: 15 * time.Minute,
			},
			MemoryCapacity: 200,
		},
		Audit: AuditConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
			MemoryCapacity: 500,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
		if c.HTTP.RateLimit.VoiceCost > c.HTTP.RateLimit.Burst {
			return errors.New("http.rateLimit.voiceCost cannot exceed burst")
		}
	}
	if strings.TrimSpace(c.Query.DefaultLanguage) == "" {
		return errors.New("query.defaultLanguage cannot be empty")
	}
	switch c.Measurement.Mode {
	case MeasurementModeRemote:
		if strings.TrimSpace(c.Measurement.ServiceURL) == "" {
			return errors.New("measurement.serviceUrl cannot be empty in remote mode")
		}
	case MeasurementModeSynthetic:
	default:
		return fmt.Errorf("measurement.mode must be %q or %q", MeasurementModeRemote, MeasurementModeSynthetic)
	}
	if c.Measurement.Timeout <= 0 {
		return errors.New("measurement.timeout must be positive")
	}
	if strings.TrimSpace(c.Translator.Endpoint) == "" {
		return errors.New("translator.endpoint cannot be empty")
	}
	if c.Translator.Retry.MaxAttempts < 0 {
		return errors.New("translator.retry.maxAttempts cannot be negative")
	}
	if c.Translator.Retry.MaxAttempts > 1 && c.Translator.Retry.BaseBackoff <= 0 {
		return errors.New("translator.retry.baseBackoff must be positive")
	}
	if c.Translator.Cache.TTL < 0 {
		return errors.New("translator.cache.ttl cannot be negative")
	}
	if c.Speech.MaxAudioBytes <= 0 {
		return errors.New("speech.maxAudioBytes must be positive")
	}
	if c.Audio.R2.Bucket != "" && strings.TrimSpace(c.Audio.R2.Endpoint) == "" {
		return errors.New("audio.r2.endpoint cannot be empty when a bucket is set")
	}
	return nil
}
