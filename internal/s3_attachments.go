package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/meridian-gis/formkit"
)

// S3AttachmentStore keeps feature attachments under
// <prefix>/<layer>/<feature-id>/<name>. Uploads go through the transfer
// manager so large photos stream in parts.
type S3AttachmentStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3AttachmentStore builds an attachment store from storage config.
// A custom endpoint (MinIO, rustfs) switches the client to path style.
func NewS3AttachmentStore(ctx context.Context, cfg formkit.StorageConfig) (*S3AttachmentStore, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle || cfg.Endpoint != ""
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.UploadPartSizeMB > 0 {
			u.PartSize = int64(cfg.UploadPartSizeMB) * 1024 * 1024
		}
	})
	return &S3AttachmentStore{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3AttachmentStore) key(layer string, feature uuid.UUID, name string) string {
	key := fmt.Sprintf("%s/%s/%s", layer, feature, name)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

func (s *S3AttachmentStore) Put(ctx context.Context, layer string, feature uuid.UUID, name, contentType string, body io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(layer, feature, name)),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed,
			"attachment upload", err).WithLayer(layer).WithDetail("name", name)
	}
	return nil
}

func (s *S3AttachmentStore) Open(ctx context.Context, layer string, feature uuid.UUID, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(layer, feature, name)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, formkit.NewFormError(formkit.ErrorTypeNotFound, formkit.ErrCodeAttachmentFailed,
				"attachment '"+name+"' not found").WithLayer(layer)
		}
		return nil, formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed,
			"attachment download", err).WithLayer(layer).WithDetail("name", name)
	}
	return out.Body, nil
}

func (s *S3AttachmentStore) Delete(ctx context.Context, layer string, feature uuid.UUID, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(layer, feature, name)),
	})
	if err != nil {
		return formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed,
			"attachment delete", err).WithLayer(layer).WithDetail("name", name)
	}
	return nil
}

// List returns the attachment names of one feature.
func (s *S3AttachmentStore) List(ctx context.Context, layer string, feature uuid.UUID) ([]string, error) {
	prefix := s.key(layer, feature, "")
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, formkit.NewPersistenceError(formkit.ErrCodeAttachmentFailed,
				"attachment listing", err).WithLayer(layer)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			names = append(names, strings.TrimPrefix(*obj.Key, prefix))
		}
	}
	return names, nil
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
