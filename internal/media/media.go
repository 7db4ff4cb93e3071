// Package media issues presigned upload URLs for catalog item images stored
// in an S3-compatible bucket.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/storefront/internal/config"
	"github.com/and161185/storefront/internal/errs"
)

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Upload is a presigned PUT for one image.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presigner signs image uploads.
type Presigner struct {
	cfg    config.MediaConfig
	client *s3.PresignClient
	now    func() time.Time
}

// New builds a presigner from the media section. Static credentials are used
// when configured, otherwise the default AWS credential chain.
func New(ctx context.Context, cfg config.MediaConfig) (*Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return &Presigner{cfg: cfg, client: s3.NewPresignClient(client), now: time.Now}, nil
}

// ObjectKey is the storage key of a new image of a vendor's item.
func ObjectKey(vendorID, itemID uuid.UUID, ext string) string {
	return path.Join("vendors", vendorID.String(), "products", itemID.String(), uuid.Must(uuid.NewV4()).String()+ext)
}

// PresignUpload returns a URL the vendor can PUT the image to.
func (p *Presigner) PresignUpload(ctx context.Context, vendorID, itemID uuid.UUID, contentType string) (Upload, error) {
	ext, ok := allowedTypes[strings.ToLower(contentType)]
	if !ok {
		return Upload{}, errs.NewValidation("content_type")
	}
	key := ObjectKey(vendorID, itemID, ext)

	req, err := presignPutObject(p.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.cfg.PresignTTL))
	if err != nil {
		return Upload{}, fmt.Errorf("media: presign put: %w", err)
	}

	return Upload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		PublicURL: p.PublicURL(key),
		ExpiresAt: p.now().Add(p.cfg.PresignTTL),
	}, nil
}

// PublicURL is where a stored object is served from; catalog items keep it in Images.
func (p *Presigner) PublicURL(key string) string {
	if p.cfg.Endpoint != "" {
		return strings.TrimRight(p.cfg.Endpoint, "/") + "/" + p.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
}
