package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// FileStorage keeps uploaded product photos. Keys are flat names, links are
// what clients fetch.
type FileStorage interface {
	UploadFile(ctx context.Context, folder string, data []byte, contentType string) (string, error)
	DeleteFile(ctx context.Context, objectKey string) error
	GetPublicLinkKey(objectKey string) string
	GetObjectKeyFromLink(link string) string
}

func newObjectKey(folder string) string {
	return fmt.Sprintf("%s-%s.jpg", folder, uuid.NewString())
}
