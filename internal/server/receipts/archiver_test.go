package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/swiftportal/internal/server/config"
	"github.com/dmitrijs2005/swiftportal/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "receipts",
	}
}

func approvedTx() *models.Transaction {
	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	return &models.Transaction{
		ID:              "5f1c1e0a-1d9b-4c7e-9a53-6f0e2a6b7c11",
		CustomerAccount: "100200300400",
		Amount:          decimal.NewFromInt(100),
		Currency:        "USD",
		Provider:        models.ProviderSWIFT,
		Status:          models.StatusApproved,
		CreatedAt:       at.Add(-time.Hour),
		ApprovedAt:      &at,
		ApprovedBy:      "EMP001",
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "approvals/2025/03/04/5f1c1e0a-1d9b-4c7e-9a53-6f0e2a6b7c11.json", Key(approvedTx()))
}

func TestNewS3Archiver_LoadConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	defer func() { loadDefaultAWSConfig = orig }()
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Archiver(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load-fail")
}

func TestNewS3Archiver_PathStyleForCustomEndpoint(t *testing.T) {
	origNew := newS3ClientFromConfig
	defer func() { newS3ClientFromConfig = origNew }()

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, f := range optFns {
			f(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	_, err := NewS3Archiver(context.Background(), testConfig())
	require.NoError(t, err)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
}

func TestArchive_PutsJSONReceipt(t *testing.T) {
	a, err := NewS3Archiver(context.Background(), testConfig())
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 1, 0, time.UTC) }

	origPut := putObject
	defer func() { putObject = origPut }()

	var got *s3.PutObjectInput
	var body []byte
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = in
		body, _ = io.ReadAll(in.Body)
		return &s3.PutObjectOutput{}, nil
	}

	require.NoError(t, a.Archive(context.Background(), approvedTx()))

	assert.Equal(t, "receipts", aws.ToString(got.Bucket))
	assert.Equal(t, Key(approvedTx()), aws.ToString(got.Key))
	assert.Equal(t, "application/json", aws.ToString(got.ContentType))

	var r Receipt
	require.NoError(t, json.Unmarshal(body, &r))
	assert.Equal(t, "EMP001", r.ApprovedBy)
	assert.Equal(t, models.StatusApproved, r.Transaction.Status)
}

func TestArchive_PutError(t *testing.T) {
	a, err := NewS3Archiver(context.Background(), testConfig())
	require.NoError(t, err)

	origPut := putObject
	defer func() { putObject = origPut }()
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("put-fail")
	}

	err = a.Archive(context.Background(), approvedTx())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put-fail")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Archive(context.Background(), approvedTx()))
}
