package s3infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store uploads item, request and profile images.
type Store struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewClient creates an S3 client. A non-empty endpointURL (LocalStack)
// overrides the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, endpointURL string) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		}
	})
}

func NewStore(client *s3.Client, bucket, region, endpointURL string) *Store {
	return &Store{client: client, bucket: bucket, region: region, endpoint: endpointURL}
}

// Upload streams r to key and returns the public object URL.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return objectURL(s.endpoint, s.bucket, s.region, key), nil
}

// UploadBase64 decodes b64Data, a raw or data-URI encoded image, and uploads it.
// It returns the URL, the decoded size and the detected content type.
func (s *Store) UploadBase64(ctx context.Context, key, b64Data string) (string, int64, string, error) {
	if i := strings.Index(b64Data, ","); strings.HasPrefix(b64Data, "data:") && i > 0 {
		b64Data = b64Data[i+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(b64Data)
	if err != nil {
		return "", 0, "", fmt.Errorf("decode base64: %w", err)
	}
	contentType := detectContentType(key, decoded)
	url, err := s.Upload(ctx, key, bytes.NewReader(decoded), contentType)
	return url, int64(len(decoded)), contentType, err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func objectURL(endpoint, bucket, region, key string) string {
	if endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + path.Join(bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// detectContentType sniffs data, falling back to the key extension.
func detectContentType(key string, data []byte) string {
	if ct := http.DetectContentType(data); ct != "application/octet-stream" && !strings.HasPrefix(ct, "text/plain") {
		return ct
	}
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
