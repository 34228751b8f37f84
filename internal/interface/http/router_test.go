package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/health-voice/internal/domain/auth"
	"github.com/yanqian/health-voice/internal/domain/healthquery"
	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/internal/domain/voice"
	"github.com/yanqian/health-voice/internal/infra/config"
	apperrors "github.com/yanqian/health-voice/pkg/errors"
	"github.com/yanqian/health-voice/pkg/metrics"
)

func TestRouter_ProcessHealthQuerySuccess(t *testing.T) {
	svc := &stubQueryService{
		handleFn: func(ctx context.Context, q healthquery.Query) (healthquery.Result, error) {
			require.Equal(t, healthquery.Query{Text: "What is my heart rate?", UserLanguage: "en", UserID: "u-1"}, q)
			return healthquery.Result{
				OriginalQuery:      q.Text,
				EnglishQuery:       q.Text,
				EnglishResponse:    "Your heart rate is 74 beats per minute. This appears to be within normal range.",
				TranslatedResponse: "Your heart rate is 74 beats per minute. This appears to be within normal range.",
				Language:           "en",
				Timestamp:          "2025-08-02T10:00:00.000Z",
			}, nil
		},
	}

	recorder := performJSON(newRouterUnderTest(t, routerDeps{query: svc}), "/process-health-query", `{"query":"What is my heart rate?","userLanguage":"en","userId":"u-1"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "What is my heart rate?", got["originalQuery"])
	require.Equal(t, "en", got["language"])
	require.Contains(t, got["englishResponse"], "74 beats per minute")
	require.Equal(t, "2025-08-02T10:00:00.000Z", got["timestamp"])
}

func TestRouter_ProcessHealthQueryMissingQuery(t *testing.T) {
	for name, body := range map[string]string{
		"missing field": `{}`,
		"blank":         `{"query":"   "}`,
		"empty body":    ``,
		"not json":      `query=hello`,
		"wrong type":    `{"query":42}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &stubQueryService{}
			recorder := performJSON(newRouterUnderTest(t, routerDeps{query: svc}), "/process-health-query", body)
			require.Equal(t, http.StatusBadRequest, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, map[string]any{"error": "Query is required", "code": "invalid_request"}, errBody)
			require.Zero(t, svc.calls)
		})
	}
}

func TestRouter_ProcessHealthQueryTranslationFailure(t *testing.T) {
	svc := &stubQueryService{
		handleFn: func(ctx context.Context, q healthquery.Query) (healthquery.Result, error) {
			cause := &healthquery.TranslationError{From: "zu", To: "en", Err: errors.New("status=401")}
			return healthquery.Result{}, apperrors.Wrap(apperrors.CodeTranslationFailed, "failed to translate query to English", cause)
		},
	}

	recorder := performJSON(newRouterUnderTest(t, routerDeps{query: svc}), "/process-health-query", `{"query":"Sawubona"}`)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "Query processing failed", errBody["error"])
	require.Equal(t, "translation_failed", errBody["code"])
	require.Contains(t, errBody["details"], "status=401")
}

func TestRouter_ProcessHealthQueryUnexpectedError(t *testing.T) {
	svc := &stubQueryService{
		handleFn: func(ctx context.Context, q healthquery.Query) (healthquery.Result, error) {
			return healthquery.Result{}, errors.New("boom")
		},
	}

	recorder := performJSON(newRouterUnderTest(t, routerDeps{query: svc}), "/process-health-query", `{"query":"pulse"}`)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "internal_error", errBody["code"])
	require.Equal(t, "boom", errBody["details"])
}

func TestRouter_ProcessVoiceQuery(t *testing.T) {
	voiceSvc := &stubVoiceService{
		processFn: func(ctx context.Context, req voice.Request) (voice.Result, error) {
			require.Equal(t, []byte("RIFFdata"), req.Audio)
			require.Equal(t, "zu", req.UserLanguage)
			require.Equal(t, "u-9", req.UserID)
			return voice.Result{Transcript: "Sawubona", AudioKey: "responses/a.mp3", AudioURL: "/audio/responses/a.mp3"}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{voice: voiceSvc})

	body, contentType := multipartBody(t, map[string]string{"userLanguage": "zu", "userId": "u-9"}, []byte("RIFFdata"))
	req := httptest.NewRequest(http.MethodPost, "/process-voice-query", body)
	req.Header.Set("Content-Type", contentType)
	recorder := serve(server, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var got voice.Result
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "/audio/responses/a.mp3", got.AudioURL)
}

func TestRouter_ProcessVoiceQueryErrors(t *testing.T) {
	server := newRouterUnderTest(t, routerDeps{voice: &stubVoiceService{
		processFn: func(ctx context.Context, req voice.Request) (voice.Result, error) {
			return voice.Result{}, apperrors.Wrap(apperrors.CodeSpeechFailed, "speech recognition failed", errors.New("401"))
		},
	}})

	body, contentType := multipartBody(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/process-voice-query", body)
	req.Header.Set("Content-Type", contentType)
	recorder := serve(server, req)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body, contentType = multipartBody(t, nil, []byte("audio"))
	req = httptest.NewRequest(http.MethodPost, "/process-voice-query", body)
	req.Header.Set("Content-Type", contentType)
	recorder = serve(server, req)
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Equal(t, "speech_failed", decodeErrorBody(t, recorder.Body.Bytes())["code"])
}

func TestRouter_GetAudio(t *testing.T) {
	voiceSvc := &stubVoiceService{
		audioFn: func(ctx context.Context, key string) (voice.AudioObject, error) {
			if key != "/responses/a.mp3" {
				return voice.AudioObject{}, apperrors.Wrap(apperrors.CodeNotFound, "audio not found", voice.ErrAudioNotFound)
			}
			return voice.AudioObject{
				StoredAudio: voice.StoredAudio{Key: "responses/a.mp3", Size: 3, MimeType: "audio/mpeg"},
				Body:        io.NopCloser(strings.NewReader("ID3")),
			}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{voice: voiceSvc})

	recorder := serve(server, httptest.NewRequest(http.MethodGet, "/audio/responses/a.mp3", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "audio/mpeg", recorder.Header().Get("Content-Type"))
	require.Equal(t, "ID3", recorder.Body.String())

	recorder = serve(server, httptest.NewRequest(http.MethodGet, "/audio/responses/missing.mp3", nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_QueryHistory(t *testing.T) {
	authSvc := auth.NewService(auth.Config{Secret: "test-secret"}, newTestLogger())
	svc := &stubQueryService{
		historyFn: func(ctx context.Context, userID string, limit int) ([]healthquery.AuditEntry, error) {
			require.Equal(t, "u-1", userID)
			require.Equal(t, 5, limit)
			return []healthquery.AuditEntry{{UserID: "u-1", Intent: healthquery.IntentHeartRate}}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{query: svc, auth: authSvc})
	token := signTestToken(t, "test-secret", "u-1")

	req := httptest.NewRequest(http.MethodGet, "/query-history?userId=someone-else&limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := serve(server, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"intent":"heart_rate"`)
	require.Contains(t, recorder.Body.String(), `"userId":"u-1"`)

	req = httptest.NewRequest(http.MethodGet, "/query-history?limit=abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = serve(server, req)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(server, httptest.NewRequest(http.MethodGet, "/query-history?userId=u-1", nil))
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouter_QueryHistoryRefusedWithoutAuth(t *testing.T) {
	svc := &stubQueryService{
		historyFn: func(ctx context.Context, userID string, limit int) ([]healthquery.AuditEntry, error) {
			t.Fatalf("history must not be read without authentication, got user %q", userID)
			return nil, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{query: svc})

	recorder := serve(server, httptest.NewRequest(http.MethodGet, "/query-history?userId=demo-user", nil))
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, "auth_required", decodeErrorBody(t, recorder.Body.Bytes())["code"])
}

func TestRouter_VitalsAnalysisAndHealthz(t *testing.T) {
	analyzer := stubAnalyzer{analysis: vitals.Analysis{UserID: "demo-user", HeartRate: 73, OxygenLevel: 98, OverallStatus: "normal"}}
	server := newRouterUnderTest(t, routerDeps{analyzer: analyzer})

	recorder := serve(server, httptest.NewRequest(http.MethodGet, "/vitals/analysis", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"overallStatus":"normal"`)

	recorder = serve(server, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok","measurementMode":"synthetic"}`, recorder.Body.String())

	recorder = serve(server, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_AuthBindsUserID(t *testing.T) {
	authSvc := auth.NewService(auth.Config{Secret: "test-secret"}, newTestLogger())
	token := signTestToken(t, "test-secret", "token-user")

	svc := &stubQueryService{
		handleFn: func(ctx context.Context, q healthquery.Query) (healthquery.Result, error) {
			require.Equal(t, "token-user", q.UserID)
			return healthquery.Result{Language: "en"}, nil
		},
	}
	server := newRouterUnderTest(t, routerDeps{query: svc, auth: authSvc})

	recorder := performJSON(server, "/process-health-query", `{"query":"pulse","userId":"spoofed"}`)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	req := httptest.NewRequest(http.MethodPost, "/process-health-query", strings.NewReader(`{"query":"pulse","userId":"spoofed"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = serve(server, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 1, svc.calls)

	req = httptest.NewRequest(http.MethodPost, "/process-health-query", strings.NewReader(`{"query":"pulse"}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	recorder = serve(server, req)
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, routerDeps{origins: []string{"https://app.example"}})
	req := httptest.NewRequest(http.MethodOptions, "/process-health-query", nil)
	req.Header.Set("Origin", "https://app.example")

	recorder := serve(server, req)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "https://app.example", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, routerDeps{rateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}})

	first := performJSON(server, "/process-health-query", `{"query":"pulse"}`)
	require.Equal(t, http.StatusOK, first.Code)
	second := performJSON(server, "/process-health-query", `{"query":"pulse"}`)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, second.Body.Bytes())["code"])
}

type routerDeps struct {
	query     healthquery.Service
	voice     voice.Service
	analyzer  VitalsAnalyzer
	auth      auth.Service
	origins   []string
	rateLimit config.RateLimitConfig
}

func newRouterUnderTest(t *testing.T, deps routerDeps) *http.Server {
	t.Helper()
	if deps.query == nil {
		deps.query = &stubQueryService{}
	}
	if deps.voice == nil {
		deps.voice = &stubVoiceService{}
	}
	if deps.analyzer == nil {
		deps.analyzer = stubAnalyzer{}
	}
	if deps.auth == nil {
		deps.auth = auth.NewService(auth.Config{}, newTestLogger())
	}
	handler := NewHandler(HandlerConfig{MeasurementMode: vitals.ModeSynthetic, DefaultUserID: "demo-user"}, deps.query, deps.voice, deps.analyzer, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			RateLimit:    deps.rateLimit,
			CORS:         config.CORSConfig{AllowedOrigins: deps.origins},
		},
	}
	return NewRouter(cfg, handler, deps.auth, metrics.New(), newTestLogger())
}

func signTestToken(t *testing.T, secret, userID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: userID, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func performJSON(server *http.Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(server, req)
}

func serve(server *http.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if audio != nil {
		part, err := writer.CreateFormFile("audio", "query.wav")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

type stubQueryService struct {
	handleFn  func(ctx context.Context, q healthquery.Query) (healthquery.Result, error)
	historyFn func(ctx context.Context, userID string, limit int) ([]healthquery.AuditEntry, error)
	calls     int
}

func (s *stubQueryService) Handle(ctx context.Context, q healthquery.Query) (healthquery.Result, error) {
	s.calls++
	if s.handleFn != nil {
		return s.handleFn(ctx, q)
	}
	return healthquery.Result{OriginalQuery: q.Text, Language: q.UserLanguage}, nil
}

func (s *stubQueryService) History(ctx context.Context, userID string, limit int) ([]healthquery.AuditEntry, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, userID, limit)
	}
	return nil, nil
}

type stubVoiceService struct {
	processFn func(ctx context.Context, req voice.Request) (voice.Result, error)
	audioFn   func(ctx context.Context, key string) (voice.AudioObject, error)
}

func (s *stubVoiceService) Process(ctx context.Context, req voice.Request) (voice.Result, error) {
	if s.processFn != nil {
		return s.processFn(ctx, req)
	}
	return voice.Result{}, nil
}

func (s *stubVoiceService) Audio(ctx context.Context, key string) (voice.AudioObject, error) {
	if s.audioFn != nil {
		return s.audioFn(ctx, key)
	}
	return voice.AudioObject{}, apperrors.Wrap(apperrors.CodeNotFound, "audio not found", nil)
}

type stubAnalyzer struct {
	analysis vitals.Analysis
}

func (s stubAnalyzer) AnalyzeVitals(ctx context.Context, userID string) (vitals.Analysis, error) {
	a := s.analysis
	a.UserID = userID
	return a, nil
}
