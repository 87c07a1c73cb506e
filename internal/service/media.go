package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"photoshare/internal/config"
	domain "photoshare/internal/model"
)

// FileStorage stores photo bytes and hands back an opaque reference.
type FileStorage interface {
	UploadPhoto(ctx context.Context, ownerID int64, file multipart.File, header *multipart.FileHeader) (*domain.FileRef, error)
	DeleteObject(ctx context.Context, key string) error
}

const photoJPEGQuality = 85

// MediaService keeps photo files in a Cloudflare R2 bucket.
type MediaService struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("%w: missing Cloudflare R2 configuration", ErrStorageUnavailable)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:  s3Client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadPhoto checks the upload, bounds it to PhotoMaxDimension as JPEG and
// stores it under photos/<owner>/.
func (s *MediaService) UploadPhoto(ctx context.Context, ownerID int64, file multipart.File, header *multipart.FileHeader) (*domain.FileRef, error) {
	raw, err := loadPhotoUpload(file, header)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizePhoto(raw)
	if err != nil {
		return nil, err
	}

	ref := s.refFor(ownerID)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(ref.Key),
		Body:         bytes.NewReader(normalized),
		ContentType:  aws.String(domain.PhotoContentType),
		CacheControl: aws.String(domain.PhotoCacheControl),
	})
	if err != nil {
		return nil, fmt.Errorf("put photo %s: %w", ref.Key, err)
	}
	return ref, nil
}

// DeleteObject removes a stored photo. An empty key is a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}

func (s *MediaService) refFor(ownerID int64) *domain.FileRef {
	key := fmt.Sprintf("%s/%d/%s%s", domain.PhotoFolder, ownerID, uuid.NewString(), domain.PhotoExt)
	return &domain.FileRef{Key: key, URL: s.publicURL + "/" + key}
}

// loadPhotoUpload reads at most MaxPhotoSize+1 bytes so an oversized body is
// detected without buffering all of it.
func loadPhotoUpload(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	if header.Size > domain.MaxPhotoSize {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > domain.MaxPhotoSize {
		return nil, domain.ErrFileTooLarge
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" && len(data) > 0 {
		mediaType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if base, _, found := strings.Cut(mediaType, ";"); found {
		mediaType = strings.TrimSpace(base)
	}
	if !domain.IsAllowedImageType(mediaType) {
		return nil, domain.ErrInvalidImageType
	}
	return data, nil
}

// normalizePhoto applies EXIF orientation and re-encodes as JPEG, shrinking
// anything larger than PhotoMaxDimension on either side.
func normalizePhoto(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode image", domain.ErrInvalidImageType)
	}

	if size := img.Bounds().Size(); size.X > domain.PhotoMaxDimension || size.Y > domain.PhotoMaxDimension {
		img = imaging.Fit(img, domain.PhotoMaxDimension, domain.PhotoMaxDimension, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(photoJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
