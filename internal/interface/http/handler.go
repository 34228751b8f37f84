package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/health-voice/internal/domain/healthquery"
	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/internal/domain/voice"
	apperrors "github.com/yanqian/health-voice/pkg/errors"
)

const (
	queryRequiredMessage = "Query is required"
	queryFailedMessage   = "Query processing failed"
	multipartOverhead    = 1 << 20
)

// VitalsAnalyzer produces the combined measurement report.
type VitalsAnalyzer interface {
	AnalyzeVitals(ctx context.Context, userID string) (vitals.Analysis, error)
}

// HandlerConfig carries transport level limits.
type HandlerConfig struct {
	MeasurementMode vitals.Mode
	MaxAudioBytes   int64
	DefaultUserID   string
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	cfg      HandlerConfig
	querySvc healthquery.Service
	voiceSvc voice.Service
	analyzer VitalsAnalyzer
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg HandlerConfig, querySvc healthquery.Service, voiceSvc voice.Service, analyzer VitalsAnalyzer, logger *slog.Logger) *Handler {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = 10 << 20
	}
	return &Handler{
		cfg:      cfg,
		querySvc: querySvc,
		voiceSvc: voiceSvc,
		analyzer: analyzer,
		logger:   logger.With("component", "http.handler"),
	}
}

type healthQueryRequest struct {
	Query        string `json:"query"`
	UserLanguage string `json:"userLanguage"`
	UserID       string `json:"userId"`
}

// ProcessHealthQuery runs one text query through the pipeline.
func (h *Handler) ProcessHealthQuery(c *gin.Context) {
	var req healthQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", queryRequiredMessage, err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", queryRequiredMessage, nil))
		return
	}

	result, err := h.querySvc.Handle(c.Request.Context(), healthquery.Query{
		Text:         req.Query,
		UserLanguage: strings.TrimSpace(req.UserLanguage),
		UserID:       resolveUserID(c, req.UserID),
	})
	if err != nil {
		abortWithError(c, queryError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessVoiceQuery accepts recorded speech and answers with text and synthesized audio.
func (h *Handler) ProcessVoiceQuery(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxAudioBytes+multipartOverhead)
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "invalid_request", "audio exceeds maximum allowed size", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "audio file is required", err))
		return
	}
	if fileHeader.Size > h.cfg.MaxAudioBytes {
		abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "invalid_request", "audio exceeds maximum allowed size", nil))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}

	res, err := h.voiceSvc.Process(c.Request.Context(), voice.Request{
		Audio:        data,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		UserLanguage: strings.TrimSpace(c.PostForm("userLanguage")),
		UserID:       resolveUserID(c, c.PostForm("userId")),
		Locale:       c.PostForm("locale"),
		Voice:        c.PostForm("voice"),
	})
	if err != nil {
		abortWithError(c, voiceError(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetAudio streams a stored response clip.
func (h *Handler) GetAudio(c *gin.Context) {
	obj, err := h.voiceSvc.Audio(c.Request.Context(), c.Param("key"))
	if err != nil {
		status := http.StatusInternalServerError
		code := "audio_failed"
		switch {
		case apperrors.IsCode(err, apperrors.CodeNotFound):
			status = http.StatusNotFound
			code = apperrors.CodeNotFound
		case apperrors.IsCode(err, apperrors.CodeInvalidInput):
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	defer obj.Body.Close()

	size := obj.Size
	if size <= 0 {
		size = -1
	}
	mimeType := obj.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, size, mimeType, obj.Body, map[string]string{
		"Cache-Control": "private, max-age=3600",
	})
}

// QueryHistory lists the most recent pipeline results for a user.
func (h *Handler) QueryHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}
	userID := resolveUserID(c, c.Query("userId"))
	if userID == "" {
		userID = h.cfg.DefaultUserID
	}

	entries, err := h.querySvc.History(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, failureCode(err), "failed to load query history", err))
		return
	}
	if entries == nil {
		entries = []healthquery.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "entries": entries})
}

// VitalsAnalysis returns the combined measurement report.
func (h *Handler) VitalsAnalysis(c *gin.Context) {
	userID := resolveUserID(c, c.Query("userId"))
	if userID == "" {
		userID = h.cfg.DefaultUserID
	}
	analysis, err := h.analyzer.AnalyzeVitals(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "analysis_failed", "vitals analysis failed", err))
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Healthz reports liveness and the active measurement mode.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "measurementMode": string(h.cfg.MeasurementMode)})
}

func queryError(err error) *HTTPError {
	if apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		return NewHTTPError(http.StatusBadRequest, "invalid_request", queryRequiredMessage, err)
	}
	return NewHTTPError(http.StatusInternalServerError, failureCode(err), queryFailedMessage, err)
}

func voiceError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeSpeechFailed):
		return NewHTTPError(http.StatusBadGateway, apperrors.CodeSpeechFailed, "Voice query processing failed", err)
	}
	return NewHTTPError(http.StatusInternalServerError, failureCode(err), "Voice query processing failed", err)
}

func failureCode(err error) string {
	if code := apperrors.CodeOf(err); code != "" {
		return code
	}
	return "internal_error"
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
