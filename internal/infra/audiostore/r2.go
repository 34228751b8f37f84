package audiostore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/health-voice/internal/domain/voice"
)

// R2Config holds the S3-compatible connection settings.
type R2Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	// PresignTTL enables direct download links when positive.
	PresignTTL time.Duration
}

// R2Store stores clips in Cloudflare R2 via the S3-compatible API.
type R2Store struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
	logger     *slog.Logger

	bucketMu    sync.Mutex
	bucketReady bool
}

// NewR2Store constructs the storage adapter.
func NewR2Store(cfg R2Config, logger *slog.Logger) (*R2Store, error) {
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	return &R2Store{
		client:     client,
		bucket:     cfg.Bucket,
		presignTTL: cfg.PresignTTL,
		logger:     logger.With("component", "audiostore.r2"),
	}, nil
}

// ensureBucket checks the bucket until one check succeeds. Failures are not
// remembered so a cancelled or transient first request does not poison later ones.
func (s *R2Store) ensureBucket(ctx context.Context) error {
	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		s.logger.InfoContext(ctx, "bucket created", "bucket", s.bucket)
	}
	s.bucketReady = true
	return nil
}

// Put uploads the clip and presigns a link when configured.
func (s *R2Store) Put(ctx context.Context, key string, data []byte, mimeType string) (voice.StoredAudio, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return voice.StoredAudio{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      mimeType,
		DisableMultipart: true,
	})
	if err != nil {
		return voice.StoredAudio{}, err
	}
	stored := voice.StoredAudio{Key: key, Size: info.Size, MimeType: mimeType}
	if s.presignTTL > 0 {
		link, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
		if err != nil {
			s.logger.WarnContext(ctx, "presign failed, serving through api", "key", key, "error", err)
		} else {
			stored.URL = link.String()
		}
	}
	return stored, nil
}

// Open fetches a clip for streaming.
func (s *R2Store) Open(ctx context.Context, key string) (voice.AudioObject, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return voice.AudioObject{}, mapNotFound(err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return voice.AudioObject{}, mapNotFound(err)
	}
	return voice.AudioObject{
		StoredAudio: voice.StoredAudio{Key: key, Size: info.Size, MimeType: info.ContentType},
		Body:        obj,
	}, nil
}

func mapNotFound(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %v", voice.ErrAudioNotFound, err)
	}
	return err
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

var _ voice.AudioStore = (*R2Store)(nil)
