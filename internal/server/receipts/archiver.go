// Package receipts archives approval receipts for approved transactions
// to an S3-compatible bucket.
package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/swiftportal/internal/server/config"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// Receipt is the document stored for every approval.
type Receipt struct {
	Transaction *models.Transaction `json:"transaction"`
	ApprovedBy  string              `json:"approvedBy"`
	ArchivedAt  time.Time           `json:"archivedAt"`
}

// Noop discards receipts. It is used when no bucket is configured.
type Noop struct{}

func (Noop) Archive(context.Context, *models.Transaction) error { return nil }

type S3Archiver struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

func NewS3Archiver(ctx context.Context, cfg *sc.Config) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

// Key returns the object key of the receipt for t.
func Key(t *models.Transaction) string {
	at := t.CreatedAt
	if t.ApprovedAt != nil {
		at = *t.ApprovedAt
	}
	return fmt.Sprintf("approvals/%04d/%02d/%02d/%s.json", at.Year(), at.Month(), at.Day(), t.ID)
}

func (a *S3Archiver) Archive(ctx context.Context, t *models.Transaction) error {
	body, err := json.Marshal(Receipt{Transaction: t, ApprovedBy: t.ApprovedBy, ArchivedAt: a.now().UTC()})
	if err != nil {
		return fmt.Errorf("error encoding receipt: %w", err)
	}

	key := Key(t)
	_, err = putObject(a.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error uploading receipt %s: %w", key, err)
	}
	return nil
}
