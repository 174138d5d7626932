package sync

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const ndjsonContentType = "application/x-ndjson"

// S3Destination uploads each snapshot as a single object. The digest and
// record count travel as object metadata.
type S3Destination struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Destination loads the default AWS credential chain for region. A
// non-empty endpoint points the client at an S3-compatible server such as
// MinIO and switches to path-style addressing.
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &S3Destination{client: client, bucket: bucket, key: key}, nil
}

func (d *S3Destination) Name() string {
	return fmt.Sprintf("s3://%s/%s", d.bucket, d.key)
}

func (d *S3Destination) Write(ctx context.Context, snap *Snapshot) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(snap.Data),
		ContentType: aws.String(ndjsonContentType),
		Metadata: map[string]string{
			"digest":  snap.Digest,
			"records": strconv.Itoa(snap.Records),
		},
	}
	if _, err := d.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3 put object %s: %w", d.Name(), err)
	}
	return nil
}
