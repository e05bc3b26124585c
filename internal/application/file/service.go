package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/pkg/id"
)

// MaxUploadSize bounds a single image upload.
const MaxUploadSize = 10 << 20

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploaderID  string
}

type UploadBase64Request struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Data     string `json:"data" validate:"required"`
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	UploadBase64(ctx context.Context, req UploadBase64Request, uploaderID string) (*domain.File, error)
	Get(ctx context.Context, fileID string) (*domain.File, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	UploadBase64(ctx context.Context, key, b64Data string) (string, int64, string, error)
	Delete(ctx context.Context, key string) error
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
}

type service struct {
	store    objectStore
	fileRepo fileStore
}

func NewService(store objectStore, fileRepo fileStore) Service {
	return &service{store: store, fileRepo: fileRepo}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	if input.Size > MaxUploadSize {
		return nil, fmt.Errorf("file too large: %w", domain.ErrBadRequest)
	}
	fileID := id.New()
	safeName := sanitizeFilename(input.Filename)
	key := objectKey(input.UploaderID, fileID, safeName)
	hasher := sha256.New()
	tee := io.TeeReader(input.Reader, hasher)
	url, err := s.store.Upload(ctx, key, tee, input.ContentType)
	if err != nil {
		return nil, err
	}
	f := &domain.File{
		FileID:           fileID,
		Object:           key,
		URL:              url,
		Size:             input.Size,
		Type:             input.ContentType,
		Name:             safeName,
		Hash:             hex.EncodeToString(hasher.Sum(nil)),
		UploadedByUserID: input.UploaderID,
		Enable:           true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) UploadBase64(ctx context.Context, req UploadBase64Request, uploaderID string) (*domain.File, error) {
	fileID := id.New()
	safeName := sanitizeFilename(req.Filename)
	key := objectKey(uploaderID, fileID, safeName)
	url, size, contentType, err := s.store.UploadBase64(ctx, key, req.Data)
	if err != nil {
		return nil, err
	}
	f := &domain.File{
		FileID:           fileID,
		Object:           key,
		URL:              url,
		Size:             size,
		Type:             contentType,
		Name:             safeName,
		UploadedByUserID: uploaderID,
		Enable:           true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// save records f, removing the uploaded object when the record cannot be written.
func (s *service) save(ctx context.Context, f *domain.File) error {
	if err := s.fileRepo.Put(ctx, f); err != nil {
		if delErr := s.store.Delete(ctx, f.Object); delErr != nil {
			logging.Ctx(ctx).Warn().Err(delErr).Str("object", f.Object).Msg("orphaned upload not removed")
		}
		return err
	}
	return nil
}

func (s *service) Get(ctx context.Context, fileID string) (*domain.File, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.Enable {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	return f, nil
}

func objectKey(uploaderID, fileID, name string) string {
	return fmt.Sprintf("files/%s/%s-%s", uploaderID, fileID, name)
}

// sanitizeFilename strips directory components and keeps only alphanumerics, dot, dash and underscore.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
