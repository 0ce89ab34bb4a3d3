package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"os"
	"path/filepath"
	"strings"
)

const recipeImageDir = "recipes"

var ImageStorage ImageStore

var ErrInvalidImageData = errors.New("image must be a base64 encoded data uri")
var ErrUnsupportedImage = errors.New("file is not a supported image")

type ImageStore interface {
	Save(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

type LocalImageStore struct {
	Root    string
	BaseUrl string
}

func (s *LocalImageStore) Save(_ context.Context, key string, _ string, data []byte) (string, error) {
	path := filepath.Join(s.Root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return strings.TrimSuffix(s.BaseUrl, "/") + "/" + key, nil
}

type S3ImageStore struct {
	client    *s3.Client
	bucket    string
	publicUrl string
}

func NewS3ImageStore(s3Config S3Config) (*S3ImageStore, error) {
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithRegion(s3Config.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s3Config.AccessKey, s3Config.SecretKey, "")),
	)

	if err != nil {
		return nil, fmt.Errorf("unable to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s3Config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Config.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3ImageStore{
		client:    client,
		bucket:    s3Config.Bucket,
		publicUrl: strings.TrimSuffix(s3Config.PublicUrl, "/"),
	}, nil
}

func (s *S3ImageStore) Save(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"),
	})

	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.publicUrl + "/" + key, nil
}

func SetupImageStorage() error {
	storageConfig := ServiceConfig.Storage

	switch storageConfig.Driver {
	case "s3":
		store, err := NewS3ImageStore(storageConfig.S3)

		if err != nil {
			return err
		}

		ImageStorage = store
	case "local", "":
		ImageStorage = &LocalImageStore{
			Root:    storageConfig.MediaRoot,
			BaseUrl: storageConfig.MediaUrl,
		}
	default:
		return fmt.Errorf("unknown storage driver %q", storageConfig.Driver)
	}

	return nil
}

// DecodeImage parses a "data:<mime>;base64,<payload>" uri and sniffs the
// payload, which must be an image regardless of the declared mime type.
func DecodeImage(dataUri string) ([]byte, *mimetype.MIME, error) {
	header, payload, found := strings.Cut(dataUri, ",")

	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, nil, ErrInvalidImageData
	}

	data, err := base64.StdEncoding.DecodeString(payload)

	if err != nil || len(data) == 0 {
		return nil, nil, ErrInvalidImageData
	}

	mtype := mimetype.Detect(data)

	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, nil, ErrUnsupportedImage
	}

	return data, mtype, nil
}

func SaveRecipeImage(ctx context.Context, dataUri string) (string, error) {
	data, mtype, err := DecodeImage(dataUri)

	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s%s", recipeImageDir, uuid.NewString(), mtype.Extension())

	return ImageStorage.Save(ctx, key, mtype.String(), data)
}
