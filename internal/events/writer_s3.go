package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// S3API is the subset of the s3 client used by the archive writer.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ArchiveWriter stores every event as one JSON object under
// prefix/topic/yyyy/mm/dd/id.json.
type S3ArchiveWriter struct {
	client S3API
	bucket string
	prefix string
}

func NewS3ArchiveWriter(client S3API, bucket, prefix string) *S3ArchiveWriter {
	return &S3ArchiveWriter{client: client, bucket: bucket, prefix: prefix}
}

func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (w *S3ArchiveWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	t := e.Time().UTC()
	key := path.Join(w.prefix, topic, t.Format("2006/01/02"), e.ID()+".json")

	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/cloudevents+json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (w *S3ArchiveWriter) Close(_ context.Context) error {
	return nil
}
