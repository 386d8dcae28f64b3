// Package imagestore keeps uploaded photos and their thumbnails in a
// gocloud.dev blob bucket.
package imagestore

import (
	"context"
	"io"
	"log/slog"

	"foodbridge/config"
	"foodbridge/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	_ "gocloud.dev/blob/s3blob"   // s3:// buckets
	"gocloud.dev/gcerrors"
)

const defaultBucketURL = "mem://"

// ErrBlobNotFound is returned by Get for an unknown key.
var ErrBlobNotFound = errors.New("blob not found")

// Bucket is a BlobStorage backed by a gocloud bucket.
type Bucket struct {
	bucket *blob.Bucket
}

// BucketParams holds dependencies for the blob storage, injected by Fx
type BucketParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewBlobStorage opens the configured bucket and closes it on shutdown.
func NewBlobStorage(params BucketParams) (service.BlobStorage, error) {
	bucketURL := defaultBucketURL
	if params.Config.Images != nil && params.Config.Images.BucketURL != "" {
		bucketURL = params.Config.Images.BucketURL
	}

	storage, err := OpenBucket(params.Ctx, bucketURL)
	if err != nil {
		return nil, err
	}

	params.Logger.Info("image bucket opened", slog.String("url", bucketURL))
	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return storage.Close()
		},
	})

	return storage, nil
}

// OpenBucket opens a bucket by gocloud URL, e.g. mem:// or file:///var/lib/foodbridge.
func OpenBucket(ctx context.Context, bucketURL string) (*Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", bucketURL)
	}

	return &Bucket{bucket: bucket}, nil
}

func (s *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType})

	return errors.Wrapf(err, "write blob %s", key)
}

func (s *Bucket) Get(ctx context.Context, key string) ([]byte, string, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", ErrBlobNotFound
		}

		return nil, "", errors.Wrapf(err, "open blob %s", key)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read blob %s", key)
	}

	return data, r.ContentType(), nil
}

// Delete ignores missing keys.
func (s *Bucket) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "delete blob %s", key)
	}

	return nil
}

func (s *Bucket) Close() error {
	return errors.WithStack(s.bucket.Close())
}
