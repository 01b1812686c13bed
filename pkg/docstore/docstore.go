// Package docstore checks document storage references against an S3 compatible bucket.
package docstore

import (
	"context"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const refScheme = "s3://"

type Opts func(c *config)

type config struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

// ObjectStatter is the part of the minio client the checker uses.
type ObjectStatter interface {
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

type Checker struct {
	bucket string
	client ObjectStatter
}

func NewChecker(opts ...Opts) (*Checker, error) {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.endpoint == "" {
		return nil, errors.New("document store endpoint is not set")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document store client")
	}

	return &Checker{bucket: cfg.bucket, client: client}, nil
}

func NewCheckerWithClient(bucket string, client ObjectStatter) *Checker {
	return &Checker{bucket: bucket, client: client}
}

// Exists succeeds when ref resolves to a stored object. A ref is either an
// object key in the default bucket or s3://bucket/key.
func (c *Checker) Exists(ctx context.Context, ref string) error {
	bucket, key, err := c.split(ref)
	if err != nil {
		return err
	}
	if _, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return errors.Errorf("object %s not found in bucket %s", key, bucket)
		}
		return errors.Wrapf(err, "failed to stat %s", ref)
	}
	return nil
}

func (c *Checker) split(ref string) (string, string, error) {
	if !strings.HasPrefix(ref, refScheme) {
		key := strings.TrimPrefix(ref, "/")
		if key == "" {
			return "", "", errors.New("empty storage reference")
		}
		return c.bucket, key, nil
	}
	bucket, key, found := strings.Cut(strings.TrimPrefix(ref, refScheme), "/")
	if !found || bucket == "" || key == "" {
		return "", "", errors.Errorf("malformed storage reference %q", ref)
	}
	return bucket, key, nil
}

func WithEndpoint(endpoint string) Opts {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) Opts {
	return func(c *config) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) Opts {
	return func(c *config) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) Opts {
	return func(c *config) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) Opts {
	return func(c *config) {
		c.useSSL = useSSL
	}
}
