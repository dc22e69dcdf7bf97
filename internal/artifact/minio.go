package artifact

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps artifacts in an S3-compatible bucket under <runID>/<name>/
type MinioStore struct {
	client     *minio.Client
	bucketName string
	runID      string
}

// NewMinioStore connects to the endpoint and makes sure the bucket exists
func NewMinioStore(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, runID string) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check artifact bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("failed to create artifact bucket %s: %w", bucket, err)
		}
	}

	return &MinioStore{client: cli, bucketName: bucket, runID: runID}, nil
}

func (s *MinioStore) prefix(name string) string {
	return path.Join(s.runID, name) + "/"
}

// Upload puts every file under the artifact prefix
func (s *MinioStore) Upload(ctx context.Context, name string, files []string) error {
	for _, f := range files {
		key := s.prefix(name) + filepath.Base(f)
		_, err := s.client.FPutObject(ctx, s.bucketName, key, f, minio.PutObjectOptions{
			ContentType: contentType(f),
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s to artifact %s: %w", f, name, err)
		}
	}
	return nil
}

// Download fetches every object under the artifact prefix into dir/name
func (s *MinioStore) Download(ctx context.Context, name, dir string) (string, error) {
	dest := filepath.Join(dir, name)
	found := false

	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    s.prefix(name),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return "", fmt.Errorf("failed to list artifact %s: %w", name, obj.Err)
		}
		file := strings.TrimPrefix(obj.Key, s.prefix(name))
		if file == "" || strings.Contains(file, "/") {
			continue
		}
		if err := s.client.FGetObject(ctx, s.bucketName, obj.Key, filepath.Join(dest, file), minio.GetObjectOptions{}); err != nil {
			return "", fmt.Errorf("failed to download %s from artifact %s: %w", file, name, err)
		}
		found = true
	}

	if !found {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return dest, nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".sarif", ".json", ".lw-json":
		return "application/json"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
