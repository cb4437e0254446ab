// Package storage accesses the object store holding uploaded CSV
// rosters. Files are downloaded for processing and then moved to a
// processed or failed prefix; when a move fails the original object is
// tagged instead so the operation itself never fails on bookkeeping.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// RosterStore wraps the MinIO client for roster file operations
type RosterStore struct {
	client          *minio.Client
	bucket          string
	processedPrefix string
	failedPrefix    string
	logger          *logger.Logger
}

// New creates a roster store from storage configuration
func New(cfg *config.StorageConfig, log *logger.Logger) (*RosterStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &RosterStore{
		client:          client,
		bucket:          cfg.Bucket,
		processedPrefix: cfg.ProcessedPrefix,
		failedPrefix:    cfg.FailedPrefix,
		logger:          log,
	}, nil
}

// Download reads the full object at objectPath
func (s *RosterStore) Download(ctx context.Context, objectPath string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	defer obj.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectPath, err)
	}
	return buf.Bytes(), nil
}

// MoveToProcessed relocates a source file after successful processing.
// A failed move degrades to tagging the original object in place.
func (s *RosterStore) MoveToProcessed(ctx context.Context, objectPath string) {
	s.move(ctx, objectPath, s.processedPrefix, "processed")
}

// MoveToFailed relocates a source file after a failed campaign.
// A failed move degrades to tagging the original object in place.
func (s *RosterStore) MoveToFailed(ctx context.Context, objectPath string) {
	s.move(ctx, objectPath, s.failedPrefix, "failed")
}

// move performs a server-side copy then removes the source. Both the
// copy and the remove are best-effort relative to the caller.
func (s *RosterStore) move(ctx context.Context, objectPath, prefix, state string) {
	dst := path.Join(prefix, path.Base(objectPath))

	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucket, Object: objectPath},
	)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("object", objectPath).
			Str("destination", dst).
			Msg("object move failed, tagging in place")
		s.tag(ctx, objectPath, state)
		return
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Warn().Err(err).
			Str("object", objectPath).
			Msg("failed to remove source object after copy")
	}
}

// tag marks the object's processing state in place
func (s *RosterStore) tag(ctx context.Context, objectPath, state string) {
	t, err := tags.NewTags(map[string]string{"processing_state": state}, true)
	if err != nil {
		return
	}
	if err := s.client.PutObjectTagging(ctx, s.bucket, objectPath, t, minio.PutObjectTaggingOptions{}); err != nil {
		s.logger.Warn().Err(err).
			Str("object", objectPath).
			Msg("failed to tag object")
	}
}
