package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dukerupert/choremane/internal/chore"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string

	// Passphrase, when set, seals every archive before upload.
	Passphrase string
}

// Configured reports whether enough is set to reach a bucket.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Archive describes an uploaded export.
type Archive struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Size       int       `json:"size"`
	Sealed     bool      `json:"sealed"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Uploader writes export documents to a bucket.
type Uploader struct {
	cfg    S3Config
	client s3Client
	logger *slog.Logger
	now    func() time.Time
}

// NewUploader returns nil when cfg is not configured.
func NewUploader(cfg S3Config, logger *slog.Logger) *Uploader {
	if !cfg.Configured() {
		return nil
	}
	return &Uploader{cfg: cfg, client: newS3Client(cfg), logger: logger, now: time.Now}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Upload encodes snap in format f and stores it under a dated, unique key,
// sealing it first when a passphrase is configured.
func (u *Uploader) Upload(ctx context.Context, snap *chore.Snapshot, f Format) (*Archive, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap, f); err != nil {
		return nil, err
	}

	now := u.now().UTC()
	key := fmt.Sprintf("%schoremane-%s-%s%s", u.cfg.Prefix, now.Format("20060102-150405"), uuid.NewString()[:8], f.Ext())
	body, contentType := buf.Bytes(), f.ContentType()

	sealed := u.cfg.Passphrase != ""
	if sealed {
		var err error
		if body, err = Seal(body, u.cfg.Passphrase); err != nil {
			return nil, fmt.Errorf("seal archive: %w", err)
		}
		key += SealedExt
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	u.logger.InfoContext(ctx, "export archived", "bucket", u.cfg.Bucket, "key", key, "bytes", len(body), "sealed", sealed)
	return &Archive{Bucket: u.cfg.Bucket, Key: key, Size: len(body), Sealed: sealed, UploadedAt: now}, nil
}
