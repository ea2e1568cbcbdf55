package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
)

// signedURLTTL is how long a Resolve redirect stays valid. The object store
// handles ranged reads itself, so no seek support is needed on our side.
const signedURLTTL = time.Hour

// BlobStore caches assets in an S3-compatible object store and serves
// time-limited signed URLs instead of byte streams.
//
// Objects are named <videoID>.mp3 inside a single bucket. A single PutObject
// call is the publish step; the store never exposes partial uploads.
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore connects to the object store described by cfg and ensures the
// bucket exists.
func NewBlobStore(ctx context.Context, cfg shared.BlobConfig) (*BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to blob store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket %s: %v", shared.ErrStorage, cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create bucket %s: %v", shared.ErrStorage, cfg.Bucket, err)
		}
	}

	return &BlobStore{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(videoID string) string { return videoID + assetExt }

// Exists reports whether an object is present for the identifier.
func (s *BlobStore) Exists(ctx context.Context, videoID string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectKey(videoID), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat object %s: %v", shared.ErrStorage, videoID, err)
}

// Put uploads the content under the identifier's object key.
//
// Size is unknown at call time (the extractor streams), so -1 lets the
// client pick a multipart strategy. Last writer wins on repeat puts.
func (s *BlobStore) Put(ctx context.Context, videoID string, r io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(videoID), r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: upload object %s: %v", shared.ErrStorage, videoID, err)
	}
	return nil
}

// Resolve returns a handle carrying a presigned GET URL valid for one hour.
func (s *BlobStore) Resolve(ctx context.Context, videoID string) (*Handle, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, objectKey(videoID), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: stat object %s: %v", shared.ErrStorage, videoID, err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey(videoID), signedURLTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: sign URL for %s: %v", shared.ErrStorage, videoID, err)
	}

	return &Handle{
		Size:      stat.Size,
		ModTime:   stat.LastModified,
		SignedURL: url.String(),
	}, nil
}

// Delete removes the object. Missing objects report false, not an error.
func (s *BlobStore) Delete(ctx context.Context, videoID string) (bool, error) {
	// RemoveObject succeeds for absent keys, so check first to honor the
	// delete-reports-false contract.
	exists, err := s.Exists(ctx, videoID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(videoID), minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("%w: delete object %s: %v", shared.ErrStorage, videoID, err)
	}
	return true, nil
}

// List enumerates all objects in the bucket.
//
// Object stores do not track access time, so LastModified stands in for
// last-access in capacity accounting.
func (s *BlobStore) List(ctx context.Context) ([]models.AssetInfo, error) {
	var assets []models.AssetInfo

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if object.Err != nil {
			return nil, fmt.Errorf("%w: list objects: %v", shared.ErrStorage, object.Err)
		}
		if !strings.HasSuffix(object.Key, assetExt) {
			continue
		}
		assets = append(assets, models.AssetInfo{
			VideoID:    strings.TrimSuffix(object.Key, assetExt),
			Size:       object.Size,
			LastAccess: object.LastModified,
		})
	}

	return assets, nil
}
