package remote

import (
	"context"
	"fmt"

	"photokeep/internal/backup"
	"photokeep/internal/config"
)

// NewRemoteFromConfig creates a RemoteStore implementation based on the
// remote config type.
func NewRemoteFromConfig(ctx context.Context, cfg config.RemoteConfig, clock backup.Clock) (backup.RemoteStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryRemoteStore(cfg.Name, clock), nil
	case "s3":
		return NewS3RemoteStore(ctx, cfg.Name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "filesystem":
		if cfg.FSRemoteRoot == "" {
			return nil, fmt.Errorf("filesystem remote requires fs_remote_root to be set")
		}
		return NewDirRemoteStore(cfg.Name, cfg.FSRemoteRoot)
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
