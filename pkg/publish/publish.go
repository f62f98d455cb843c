// Package publish uploads the artefacts of a run to S3.
package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"ghscraper/pkg/config"
	"ghscraper/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/multierr"
)

// ObjectPutter is the part of the S3 API the uploader needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader puts files under s3://bucket/prefix/<run-id>/
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	logger logger.Logger
}

// New creates an S3 uploader. Static credentials are used when both keys are
// configured, otherwise the default AWS credential chain.
func New(ctx context.Context, cfg config.UploadConfig, log logger.Logger) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(s3.NewFromConfig(awsCfg), cfg, log), nil
}

// NewWithClient creates an uploader around an existing S3 client
func NewWithClient(client ObjectPutter, cfg config.UploadConfig, log logger.Logger) *Uploader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: log,
	}
}

// Key returns the object key of file for runID
func (u *Uploader) Key(runID, file string) string {
	return path.Join(u.prefix, runID, filepath.Base(file))
}

// UploadFiles uploads every file. A failure does not stop the remaining
// uploads; all failures are returned together.
func (u *Uploader) UploadFiles(ctx context.Context, runID string, files []string) ([]string, error) {
	var (
		uploaded []string
		errs     error
	)

	for _, file := range files {
		key := u.Key(runID, file)
		if err := u.uploadFile(ctx, key, file); err != nil {
			u.logger.WithError(err).WithField("file", file).Error("Upload failed")
			errs = multierr.Append(errs, fmt.Errorf("upload %s: %w", file, err))
			continue
		}

		uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
		u.logger.InfoWithFields("Uploaded artefact", map[string]interface{}{
			"file": file,
			"uri":  uri,
		})
		uploaded = append(uploaded, uri)
	}

	return uploaded, errs
}

func (u *Uploader) uploadFile(ctx context.Context, key, file string) (err error) {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	return err
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	case ".db":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}
