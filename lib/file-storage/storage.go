package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"barangay-services-backend/config"
	"barangay-services-backend/lib/utils/apperrors"
)

// Provider is the evidence store adapter: an opaque blob store keyed by
// request id + stored name. All calls are bounded by the configured timeout.
type Provider interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (url string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// URL builds the stable path of a stored object without touching the store.
	URL(key string) string
}

var Instance Provider

func NewHandler(client *minio.Client) {
	Instance = &impl{
		client:  client,
		bucket:  config.Conf.S3.BucketName,
		timeout: time.Duration(config.Conf.S3.TimeoutSec) * time.Second,
	}
}

type impl struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

func ObjectKey(requestID, storedName string) string {
	return fmt.Sprintf("%s/%s", requestID, storedName)
}

// AttachmentKey keys evidence blobs by their stored name only, the blob does
// not move when a staged upload is claimed by a request.
func AttachmentKey(storedName string) string {
	return "evidence/" + storedName
}

func (i impl) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	_, err := i.client.PutObject(ctx, i.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", i.wrapErr(err, "object upload")
	}
	return fmt.Sprintf("/%s/%s", i.bucket, key), nil
}

func (i impl) URL(key string) string {
	return fmt.Sprintf("/%s/%s", i.bucket, key)
}

func (i impl) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	obj, err := i.client.GetObject(ctx, i.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, i.wrapErr(err, "object download")
	}
	defer obj.Close()
	body, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == 404 {
			return nil, &apperrors.NotFoundError{Entity: "stored file", ID: key}
		}
		return nil, i.wrapErr(err, "object download")
	}
	return body, nil
}

func (i impl) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	err := i.client.RemoveObject(ctx, i.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == 404 {
			return &apperrors.NotFoundError{Entity: "stored file", ID: key}
		}
		return i.wrapErr(err, "object delete")
	}
	return nil
}

func (i impl) wrapErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &apperrors.DependencyTimeoutError{Dependency: "evidence store", Err: err}
	}
	return errors.Wrap(err, op+" failed")
}
