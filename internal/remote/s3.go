package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"photokeep/internal/backup"
)

// S3RemoteStore stores objects in an S3 bucket under an optional key prefix.
// Object ids are the fully-prefixed keys, so a Download after FindLatestByName
// never re-applies the prefix.
type S3RemoteStore struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

// S3Options carries the credentials and location for an S3-backed remote.
// When AccessKeyID is empty the SDK's default credential chain is used.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3RemoteStore builds an S3-backed remote store. It only constructs the
// client; ValidateSetup performs the first network round trip.
func NewS3RemoteStore(ctx context.Context, name string, opts S3Options) (*S3RemoteStore, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 remote requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3RemoteStore{
		name:     name,
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *S3RemoteStore) FindLatestByName(ctx context.Context, name string) (*backup.RemoteObject, error) {
	key := s.key(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("head object %s: %w", key, wrapS3Err(err))
	}

	obj := &backup.RemoteObject{ID: key, Name: name}
	if head.LastModified != nil {
		obj.ModifiedTime = *head.LastModified
	}
	return obj, nil
}

func (s *S3RemoteStore) Download(ctx context.Context, id string, w io.Writer) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("object not found: %s", id)
		}
		return fmt.Errorf("get object %s: %w", id, wrapS3Err(err))
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading object %s: %w", id, err)
	}
	return nil
}

func (s *S3RemoteStore) CreateOrUpdate(ctx context.Context, name string, r io.Reader, size int64, mimeType string) (string, error) {
	key := s.key(name)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading object %s: %w", key, wrapS3Err(err))
	}
	return key, nil
}

// ValidateSetup checks that the bucket exists and is reachable with the
// configured credentials.
func (s *S3RemoteStore) ValidateSetup(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", s.bucket, wrapS3Err(err))
	}
	return nil
}

func (s *S3RemoteStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// wrapS3Err maps transport-level failures onto ErrRemoteUnavailable so the
// sync job can distinguish "remote down, retry later" from real errors.
func wrapS3Err(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr interface{ ErrorCode() string }
	if !errors.As(err, &apiErr) {
		// No service response at all means the remote is unreachable.
		return fmt.Errorf("%w: %v", backup.ErrRemoteUnavailable, err)
	}
	return err
}

// Compile-time check that S3RemoteStore implements the backup.RemoteStore interface
var _ backup.RemoteStore = (*S3RemoteStore)(nil)
