package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/media"
)

const (
	defaultAttempts = 3
	retryBackoff    = 500 * time.Millisecond
)

// S3Publisher uploads clips to an S3 bucket with the multipart uploader.
type S3Publisher struct {
	bucket   string
	uploader s3manageriface.UploaderAPI
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

// NewS3Publisher uses the default AWS credential chain.
func NewS3Publisher(bucket, region string, logger *slog.Logger) (*S3Publisher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return NewS3PublisherWithUploader(bucket, s3manager.NewUploader(sess), logger), nil
}

func NewS3PublisherWithUploader(bucket string, uploader s3manageriface.UploaderAPI, logger *slog.Logger) *S3Publisher {
	return &S3Publisher{
		bucket:   bucket,
		uploader: uploader,
		logger:   logging.WithComponent(logger, "s3"),
		attempts: defaultAttempts,
		backoff:  retryBackoff,
	}
}

func (p *S3Publisher) Enabled() bool { return true }

func (p *S3Publisher) Publish(ctx context.Context, localPath, key string) (string, error) {
	var lastErr *PublishError
	for attempt := 1; attempt <= p.attempts; attempt++ {
		url, err := p.upload(ctx, localPath, key)
		if err == nil {
			return url, nil
		}
		if !errors.As(err, &lastErr) || !lastErr.IsRetryable() || ctx.Err() != nil {
			return "", err
		}
		p.logger.Warn("upload failed, retrying", "key", key, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.backoff * time.Duration(attempt)):
		}
	}
	return "", lastErr
}

func (p *S3Publisher) upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	var size int64 = -1
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}

	input := &s3manager.UploadInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	input.ContentType = aws.String(media.ContentType(localPath))

	start := time.Now()
	out, err := p.uploader.UploadWithContext(ctx, input)
	if err != nil {
		pe := &PublishError{Err: err}
		var rf awserr.RequestFailure
		if errors.As(err, &rf) {
			pe.StatusCode = rf.StatusCode()
		}
		return "", pe
	}

	p.logger.Info("clip published",
		"bucket", p.bucket,
		"key", key,
		"size", logging.Bytes(size),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Location, nil
}
