package storage

import "context"

// NoopStorage is used when no archive endpoint is configured. Uploads are
// dropped silently so forecast generation never depends on the archive.
type NoopStorage struct{}

func NewNoopStorage() *NoopStorage { return &NoopStorage{} }

func (n *NoopStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return nil, nil
}

func (n *NoopStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	return nil
}

func (n *NoopStorage) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

var _ ObjectStorage = (*NoopStorage)(nil)
