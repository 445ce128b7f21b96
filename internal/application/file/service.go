package file

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/classkit/api/internal/domain"
	"github.com/classkit/api/internal/pkg/id"
)

const presignTTL = 15 * time.Minute

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Kind        string // post | assignment | submission
	OwnerID     int64
	UploaderID  int64
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error)
	Download(ctx context.Context, requesterID, attachmentID int64) (io.ReadCloser, *domain.Attachment, error)
	DownloadURL(ctx context.Context, requesterID, attachmentID int64) (string, error)
	Delete(ctx context.Context, requesterID, attachmentID int64) error
	ListByOwner(ctx context.Context, kind string, ownerID int64) ([]domain.Attachment, error)
}

type attachmentStore interface {
	Insert(ctx context.Context, a *domain.Attachment) (*domain.Attachment, error)
	Get(ctx context.Context, attachmentID int64) (*domain.Attachment, error)
	ListByOwner(ctx context.Context, kind string, ownerID int64) ([]domain.Attachment, error)
	Delete(ctx context.Context, attachmentID int64) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	attachments attachmentStore
	objects     objectStore
}

type ServiceDeps struct {
	Attachments attachmentStore
	Objects     objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{attachments: deps.Attachments, objects: deps.Objects}
}

// Upload streams the file to the object store first, then records the
// attachment row. A failed row insert leaves an orphan object rather than a
// dangling row pointing at nothing.
func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Attachment, error) {
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("attachments/%s/%d/%s_%s", input.Kind, input.OwnerID, id.New(), safeName)
	if _, err := s.objects.Upload(ctx, key, input.Reader, input.ContentType); err != nil {
		return nil, err
	}
	return s.attachments.Insert(ctx, &domain.Attachment{
		OwnerID:  input.OwnerID,
		Kind:     input.Kind,
		Key:      key,
		Filename: safeName,
	})
}

func (s *service) Download(ctx context.Context, requesterID, attachmentID int64) (io.ReadCloser, *domain.Attachment, error) {
	a, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, a.Key)
	if err != nil {
		return nil, nil, err
	}
	return rc, a, nil
}

func (s *service) DownloadURL(ctx context.Context, requesterID, attachmentID int64) (string, error) {
	a, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, a.Key, presignTTL)
}

func (s *service) Delete(ctx context.Context, requesterID, attachmentID int64) error {
	a, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, a.Key); err != nil {
		return err
	}
	return s.attachments.Delete(ctx, attachmentID)
}

func (s *service) ListByOwner(ctx context.Context, kind string, ownerID int64) ([]domain.Attachment, error) {
	return s.attachments.ListByOwner(ctx, kind, ownerID)
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
