package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dynoform/composer/internal/config"
	"github.com/dynoform/composer/internal/modules/service"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

// ExportStore writes rendered form documents to S3 and issues presigned
// download links. It satisfies service.ExportStore.
type ExportStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	bucket   string
}

func NewExportStore(ctx context.Context, cfg *config.Config) (*ExportStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		// MinIO and most self-hosted gateways only speak path-style.
		o.UsePathStyle = cfg.S3.ForcePathStyle
	})

	return &ExportStore{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
		bucket:   cfg.S3.Bucket,
	}, nil
}

func (s *ExportStore) PutRender(ctx context.Context, tenantID, formID uuid.UUID, body []byte) (string, error) {
	key := fmt.Sprintf("renders/%s/%s/%d.json", tenantID, formID, time.Now().UTC().UnixMilli())
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put render object: %w", err)
	}
	return key, nil
}

func (s *ExportStore) PresignRender(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign render object: %w", err)
	}
	return req.URL, nil
}

var _ service.ExportStore = (*ExportStore)(nil)
