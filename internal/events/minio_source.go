package events

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"

	"project-status-tracker/internal/domain"
)

const objectCreatedEvent = "s3:ObjectCreated:*"

// UploadEvent is one object written under
// projectID/documentType/uploadID/filename.
type UploadEvent struct {
	ProjectID    string
	DocumentType domain.DocumentType
	UploadID     string
	FileName     string
	ObjectKey    string
	Size         int64
	EventName    string
}

type UploadEventSource interface {
	Run(ctx context.Context, handler func(context.Context, UploadEvent) error) error
}

type MinioUploadEventSource struct {
	client *minio.Client
	bucket string
	prefix string
	suffix string
	log    *slog.Logger
}

func NewMinioUploadEventSource(client *minio.Client, bucket, prefix, suffix string, logger *slog.Logger) *MinioUploadEventSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MinioUploadEventSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
		suffix: suffix,
		log:    logger,
	}
}

// Run blocks until ctx is done or the notification stream fails. Keys that
// do not follow the upload layout are logged and skipped.
func (s *MinioUploadEventSource) Run(ctx context.Context, handler func(context.Context, UploadEvent) error) error {
	notificationCh := s.client.ListenBucketNotification(ctx, s.bucket, s.prefix, s.suffix, []string{objectCreatedEvent})
	for {
		select {
		case <-ctx.Done():
			return nil
		case info, ok := <-notificationCh:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream closed")
			}
			if info.Err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("minio notification stream error: %w", info.Err)
			}
			for _, record := range info.Records {
				event, err := eventFromKey(record.S3.Object.Key)
				if err != nil {
					s.log.Warn("skipping bucket event", "key", record.S3.Object.Key, "error", err)
					continue
				}
				event.Size = record.S3.Object.Size
				event.EventName = record.EventName
				if err := handler(ctx, event); err != nil {
					return err
				}
			}
		}
	}
}

func eventFromKey(encoded string) (UploadEvent, error) {
	objectKey, err := decodeObjectKey(encoded)
	if err != nil {
		return UploadEvent{}, err
	}
	return parseObjectKey(objectKey)
}

func decodeObjectKey(encoded string) (string, error) {
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", err
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fmt.Errorf("object key is empty")
	}
	return decoded, nil
}

func parseObjectKey(objectKey string) (UploadEvent, error) {
	cleaned := strings.Trim(strings.ReplaceAll(objectKey, "\\", "/"), "/")
	parts := strings.Split(cleaned, "/")
	if len(parts) != 4 {
		return UploadEvent{}, fmt.Errorf("object key %q does not match project_id/document_type/upload_id/filename", objectKey)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return UploadEvent{}, fmt.Errorf("object key %q has an empty segment", objectKey)
		}
	}
	return UploadEvent{
		ProjectID:    parts[0],
		DocumentType: domain.DocumentType(parts[1]),
		UploadID:     parts[2],
		FileName:     parts[3],
		ObjectKey:    cleaned,
	}, nil
}
