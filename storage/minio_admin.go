package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo is a trimmed view of a stored object for CLI output.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ListObjects lists objects under a prefix, non-recursive when prefix names
// a "directory" level.
func (s *MinioStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, obj.Err)
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return out, nil
}

// BucketStats aggregates object count and total size under a prefix.
func (s *MinioStore) BucketStats(ctx context.Context, prefix string) (count int, totalSize int64, err error) {
	objects, err := s.ListObjects(ctx, prefix)
	if err != nil {
		return 0, 0, err
	}
	for _, obj := range objects {
		totalSize += obj.Size
	}
	return len(objects), totalSize, nil
}

// DeletePrefix removes every object under a prefix. Used by the storage CLI
// to clean up orphaned blobs.
func (s *MinioStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	objects, err := s.ListObjects(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, obj := range objects {
		if err := s.Remove(ctx, obj.Key); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
