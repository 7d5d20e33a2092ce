package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ArtifactRepository stores pipeline artifacts: chunk store snapshots and
// review reports.
type ArtifactRepository interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	UploadFile(ctx context.Context, bucket, objectKey, path string) (*UploadResult, error)
	Download(ctx context.Context, bucket, objectKey string) ([]byte, error)
	DownloadToFile(ctx context.Context, bucket, objectKey, path string) error
	Exists(ctx context.Context, bucket, objectKey string) (bool, error)
	Delete(ctx context.Context, bucket, objectKey string) error
}

type UploadRequest struct {
	Bucket      string
	ObjectKey   string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type minioRepository struct {
	client *MinIOClient
	logger logging.Logger
}

func NewArtifactRepository(client *MinIOClient, logger logging.Logger) ArtifactRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &minioRepository{client: client, logger: logger.Named("artifacts")}
}

func (r *minioRepository) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req == nil || req.Bucket == "" || req.ObjectKey == "" {
		return nil, ErrInvalidRequest
	}
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(req.ObjectKey)
	}

	info, err := r.client.GetClient().PutObject(ctx, req.Bucket, req.ObjectKey, bytes.NewReader(req.Data), int64(len(req.Data)),
		minio.PutObjectOptions{ContentType: contentType, UserMetadata: req.Metadata})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSinkPublishFailed, "upload failed").WithDetail(req.Bucket + "/" + req.ObjectKey)
	}
	r.logger.Debug("object uploaded", logging.String("bucket", req.Bucket), logging.String("key", req.ObjectKey), logging.Int64("size", info.Size))
	return &UploadResult{
		Bucket:     req.Bucket,
		ObjectKey:  req.ObjectKey,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now(),
	}, nil
}

func (r *minioRepository) UploadFile(ctx context.Context, bucket, objectKey, path string) (*UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "read artifact").WithDetail(path)
	}
	if objectKey == "" {
		objectKey = filepath.Base(path)
	}
	return r.Upload(ctx, &UploadRequest{Bucket: bucket, ObjectKey: objectKey, Data: data})
}

func (r *minioRepository) Download(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	obj, err := r.client.GetClient().GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "download failed")
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, "download failed")
	}
	return data, nil
}

func (r *minioRepository) DownloadToFile(ctx context.Context, bucket, objectKey, path string) error {
	data, err := r.Download(ctx, bucket, objectKey)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "create directory").WithDetail(dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "write downloaded object").WithDetail(path)
	}
	return nil
}

func (r *minioRepository) Exists(ctx context.Context, bucket, objectKey string) (bool, error) {
	_, err := r.client.GetClient().StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, mapError(err, "stat failed")
}

func (r *minioRepository) Delete(ctx context.Context, bucket, objectKey string) error {
	if err := r.client.GetClient().RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return mapError(err, "delete failed")
	}
	return nil
}

// ContentTypeFor picks a content type from the object key extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".json":
		return "application/json; charset=utf-8"
	case ".txt", ".md":
		return "text/plain; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}

func mapError(err error, msg string) error {
	if isNotFound(err) {
		return errors.Wrap(err, errors.ErrCodeNotFound, ErrObjectNotFound.Message)
	}
	return errors.Wrap(err, errors.CodeStorageError, msg)
}

//Personal.AI order the ending
