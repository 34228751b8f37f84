//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/health-voice/internal/bootstrap"
	"github.com/yanqian/health-voice/internal/domain/auth"
	"github.com/yanqian/health-voice/internal/domain/healthquery"
	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/internal/domain/voice"
	"github.com/yanqian/health-voice/internal/infra/config"
	"github.com/yanqian/health-voice/internal/infra/ppg/synthetic"
	speechazure "github.com/yanqian/health-voice/internal/infra/speech/azure"
	httpiface "github.com/yanqian/health-voice/internal/interface/http"
	"github.com/yanqian/health-voice/pkg/logger"
	"github.com/yanqian/health-voice/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.New,
		provideQueryConfig,
		provideMeasurementMode,
		provideSyntheticProvider,
		provideSelector,
		provideTranslator,
		provideAuditLog,
		provideSpeechClient,
		provideVoiceConfig,
		provideAudioStore,
		provideAuthConfig,
		provideHandlerConfig,
		healthquery.NewService,
		voice.NewService,
		auth.NewService,
		wire.Bind(new(healthquery.Measurements), new(*vitals.Selector)),
		wire.Bind(new(voice.SpeechToText), new(*speechazure.Client)),
		wire.Bind(new(voice.TextToSpeech), new(*speechazure.Client)),
		vitals.NewAnalyzer,
		wire.Bind(new(vitals.SummarySource), new(*synthetic.Provider)),
		wire.Bind(new(httpiface.VitalsAnalyzer), new(*vitals.Analyzer)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
