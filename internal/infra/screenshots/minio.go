package screenshots

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pagelint/pagelint/internal/domain/reports"
)

// MinioStore keeps screenshots in an S3-compatible bucket for deployments
// where the API serves from more than one node.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucket: bucket}, nil
}

func key(uuid string) string {
	return uuid + ".png"
}

func (s *MinioStore) Save(ctx context.Context, uuid string, png []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key(uuid),
		bytes.NewReader(png), int64(len(png)),
		minio.PutObjectOptions{ContentType: "image/png"})
	return err
}

func (s *MinioStore) Get(ctx context.Context, uuid string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key(uuid), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, reports.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *MinioStore) Remove(ctx context.Context, uuid string) error {
	return s.client.RemoveObject(ctx, s.bucket, key(uuid), minio.RemoveObjectOptions{})
}
