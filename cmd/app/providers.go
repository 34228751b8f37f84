package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/health-voice/internal/domain/auth"
	"github.com/yanqian/health-voice/internal/domain/healthquery"
	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/internal/domain/voice"
	"github.com/yanqian/health-voice/internal/infra/audiostore"
	"github.com/yanqian/health-voice/internal/infra/auditlog"
	"github.com/yanqian/health-voice/internal/infra/config"
	"github.com/yanqian/health-voice/internal/infra/ppg/remote"
	"github.com/yanqian/health-voice/internal/infra/ppg/synthetic"
	speechazure "github.com/yanqian/health-voice/internal/infra/speech/azure"
	"github.com/yanqian/health-voice/internal/infra/translator/azure"
	"github.com/yanqian/health-voice/internal/infra/translator/cache"
	"github.com/yanqian/health-voice/internal/infra/translator/retry"
	httpiface "github.com/yanqian/health-voice/internal/interface/http"
)

func provideQueryConfig(cfg *config.Config) healthquery.Config {
	return healthquery.Config{
		DefaultLanguage: cfg.Query.DefaultLanguage,
		DefaultUserID:   cfg.Query.DefaultUserID,
		HistoryLimit:    cfg.Query.HistoryLimit,
	}
}

func provideMeasurementMode(cfg *config.Config) (vitals.Mode, error) {
	return vitals.ParseMode(cfg.Measurement.Mode)
}

func provideSyntheticProvider(logger *slog.Logger) *synthetic.Provider {
	return synthetic.NewProvider(synthetic.DefaultProfiles(time.Now()), logger)
}

func provideSelector(cfg *config.Config, mode vitals.Mode, fallback *synthetic.Provider, logger *slog.Logger) *vitals.Selector {
	if mode == vitals.ModeSynthetic {
		logger.Info("measurement service disabled, using synthetic data")
		return vitals.NewSelector(mode, nil, fallback, logger)
	}
	client := remote.NewClient(remote.Config{
		BaseURL:     cfg.Measurement.ServiceURL,
		Timeout:     cfg.Measurement.Timeout,
		TriggeredBy: cfg.Measurement.TriggeredBy,
	}, logger)
	logger.Info("measurement service enabled", "url", cfg.Measurement.ServiceURL)
	return vitals.NewSelector(mode, client, fallback, logger)
}

func provideTranslator(cfg *config.Config, logger *slog.Logger) (healthquery.Translator, func(), error) {
	tc := cfg.Translator
	if strings.TrimSpace(tc.APIKey) == "" {
		logger.Warn("translator api key not set, non-English queries will fail")
	}
	var translator healthquery.Translator = azure.NewClient(azure.Config{
		Endpoint:   tc.Endpoint,
		APIKey:     tc.APIKey,
		Region:     tc.Region,
		APIVersion: tc.APIVersion,
		Timeout:    tc.Timeout,
	}, logger)
	translator = retry.Wrap(translator, retry.Config{
		MaxAttempts: tc.Retry.MaxAttempts,
		BaseBackoff: tc.Retry.BaseBackoff,
	}, logger)

	cleanup := func() {}
	if !tc.Cache.Enabled {
		return translator, cleanup, nil
	}
	var store cache.Store = cache.NewMemoryStore(tc.Cache.MemoryCapacity)
	if addr := strings.TrimSpace(tc.Cache.Addr); addr != "" {
		client, err := newValkeyClient(addr)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
				logger.Error("valkey ping failed, falling back to memory cache", "error", err)
				client.Close()
			} else {
				logger.Info("translation valkey cache enabled", "addr", addr)
				store = cache.NewValkeyStore(client, "translation")
				cleanup = client.Close
			}
		}
	}
	return cache.Wrap(translator, store, tc.Cache.TTL, logger), cleanup, nil
}

func newValkeyClient(addr string) (valkey.Client, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return nil, err
	}
	return valkey.NewClient(opt)
}

func provideAuditLog(cfg *config.Config, logger *slog.Logger) (healthquery.AuditLog, func()) {
	fallback := auditlog.NewMemoryLog(cfg.Audit.MemoryCapacity)
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Audit.Postgres.DSN)
	if dsn == "" {
		logger.Info("audit postgres dsn not set, using memory log")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory log", "error", err)
		return fallback, noop
	}
	if cfg.Audit.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Audit.Postgres.MaxConns
	}
	if cfg.Audit.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Audit.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory log", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory log", "error", err)
		pool.Close()
		return fallback, noop
	}
	pgLog := auditlog.NewPostgresLog(pool)
	if err := pgLog.EnsureSchema(ctx); err != nil {
		logger.Error("audit schema setup failed, using memory log", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("audit postgres log enabled")
	return pgLog, pool.Close
}

func provideSpeechClient(cfg *config.Config, logger *slog.Logger) *speechazure.Client {
	if strings.TrimSpace(cfg.Speech.APIKey) == "" {
		logger.Warn("speech api key not set, voice queries will fail")
	}
	return speechazure.NewClient(speechazure.Config{
		APIKey:       cfg.Speech.APIKey,
		Region:       cfg.Speech.Region,
		STTEndpoint:  cfg.Speech.STTEndpoint,
		TTSEndpoint:  cfg.Speech.TTSEndpoint,
		OutputFormat: cfg.Speech.OutputFormat,
		Timeout:      cfg.Speech.Timeout,
	}, logger)
}

func provideVoiceConfig(cfg *config.Config) voice.Config {
	return voice.Config{
		DefaultLanguage: cfg.Query.DefaultLanguage,
		DefaultVoice:    cfg.Speech.DefaultVoice,
		Locales:         cfg.Speech.Locales,
		Voices:          cfg.Speech.Voices,
		MaxAudioBytes:   cfg.Speech.MaxAudioBytes,
	}
}

func provideAudioStore(cfg *config.Config, logger *slog.Logger) voice.AudioStore {
	r2 := cfg.Audio.R2
	if strings.TrimSpace(r2.Bucket) == "" {
		logger.Info("audio bucket not set, keeping clips in memory")
		return audiostore.NewMemoryStore(cfg.Audio.MemoryCapacity)
	}
	store, err := audiostore.NewR2Store(audiostore.R2Config{
		Endpoint:   r2.Endpoint,
		AccessKey:  r2.AccessKey,
		SecretKey:  r2.SecretKey,
		Bucket:     r2.Bucket,
		Region:     r2.Region,
		PresignTTL: r2.PresignTTL,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize r2 storage, keeping clips in memory", "error", err)
		return audiostore.NewMemoryStore(cfg.Audio.MemoryCapacity)
	}
	logger.Info("audio r2 storage enabled", "bucket", r2.Bucket)
	return store
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret: cfg.HTTP.Auth.JWTSecret,
		Issuer: cfg.HTTP.Auth.Issuer,
	}
}

func provideHandlerConfig(cfg *config.Config, mode vitals.Mode) httpiface.HandlerConfig {
	return httpiface.HandlerConfig{
		MeasurementMode: mode,
		MaxAudioBytes:   cfg.Speech.MaxAudioBytes,
		DefaultUserID:   cfg.Query.DefaultUserID,
	}
}
