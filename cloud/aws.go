package cloud

import (
	"context"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type AWS struct {
	cfg *config.BrowserConfig

	s3Once   sync.Once
	s3Err    error
	S3Client s3iface.S3API
}

func ProvideAWS(cfg *config.BrowserConfig) *AWS {
	return &AWS{cfg: cfg}
}

// ListObjectsPage issues a single ListObjectsV2 call.
func (a *AWS) ListObjectsPage(ctx context.Context, req ListRequest) (*ListPage, error) {
	if err := a.EnsureS3(); err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(req.Bucket),
		Prefix: aws.String(req.Prefix),
	}
	if req.Delimiter != "" {
		input.Delimiter = aws.String(req.Delimiter)
	}
	if req.ContinuationToken != "" {
		input.ContinuationToken = aws.String(req.ContinuationToken)
	}

	out, err := a.S3Client.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, err
	}

	page := &ListPage{
		Keys:      make([]string, 0, len(out.Contents)),
		Truncated: aws.BoolValue(out.IsTruncated),
		NextToken: aws.StringValue(out.NextContinuationToken),
	}
	for _, obj := range out.Contents {
		page.Keys = append(page.Keys, aws.StringValue(obj.Key))
	}
	return page, nil
}

// GetPresignedUrl presigns a GetObject request. The SDK rejects a non-positive expiry.
func (a *AWS) GetPresignedUrl(ctx context.Context, bucketName, key string, expiry time.Duration) (string, error) {
	if err := a.EnsureS3(); err != nil {
		return "", err
	}

	req, _ := a.S3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	return req.Presign(expiry)
}

// EnsureS3 builds the shared S3 client on first use unless one was injected.
func (a *AWS) EnsureS3() error {
	a.s3Once.Do(func() {
		if a.S3Client != nil {
			return
		}
		a.S3Client, a.s3Err = newS3Client(a.cfg.AwsRegion)
	})
	return a.s3Err
}

// factory variable – defaults to the real SDK session
var newS3Client = func(region string) (s3iface.S3API, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}
