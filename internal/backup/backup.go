// Package backup ships vault exports to an S3-compatible bucket through
// presigned PUT URLs.
package backup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/credvault/internal/config"
	"github.com/dmitrijs2005/credvault/internal/netx"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no bucket or endpoint is set.
var ErrNotConfigured = errors.New("backup is not configured")

const (
	contentType   = "application/json"
	presignExpiry = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	upload = netx.UploadToPresignedURL
)

// ObjectKey returns the bucket key for a backup of vaultID taken at t.
func ObjectKey(vaultID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("vaults/%s/%04d/%02d/%02d/%s.json", vaultID, t.Year(), int(t.Month()), t.Day(), uuid.New())
}

type Uploader struct {
	cfg    config.S3Config
	client *http.Client
	now    func() time.Time
}

func NewUploader(cfg config.S3Config, client *http.Client) *Uploader {
	return &Uploader{cfg: cfg, client: client, now: time.Now}
}

func (u *Uploader) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(u.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(u.cfg.Endpoint)
		o.UsePathStyle = true
	})
	return newS3PresignClient(client), nil
}

// PresignPut returns a fresh object key for vaultID and a URL that accepts
// a PUT to it.
func (u *Uploader) PresignPut(ctx context.Context, vaultID string) (string, string, error) {
	if !u.cfg.Enabled() {
		return "", "", ErrNotConfigured
	}

	pc, err := u.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := u.cfg.Bucket
	key := ObjectKey(vaultID, u.now())
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}
	return key, req.URL, nil
}

// Upload stores body as a new backup object and returns its key.
func (u *Uploader) Upload(ctx context.Context, vaultID string, body []byte) (string, error) {
	key, url, err := u.PresignPut(ctx, vaultID)
	if err != nil {
		return "", err
	}
	if err := upload(ctx, u.client, url, body, contentType); err != nil {
		return "", fmt.Errorf("backup %s: %w", key, err)
	}
	return key, nil
}
