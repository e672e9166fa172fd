package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const ImageRoute = "/api/images/"

var ErrInvalidObjectKey = errors.New("invalid object key")

// LocalStorage keeps images in a directory served back under ImageRoute.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Path resolves a key to a file inside the storage directory.
func (l *LocalStorage) Path(objectKey string) (string, error) {
	if objectKey == "" || objectKey != filepath.Base(objectKey) || strings.HasPrefix(objectKey, ".") {
		return "", ErrInvalidObjectKey
	}
	return filepath.Join(l.dir, objectKey), nil
}

func (l *LocalStorage) UploadFile(_ context.Context, folder string, data []byte, _ string) (string, error) {
	objectKey := newObjectKey(folder)
	path, err := l.Path(objectKey)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return objectKey, nil
}

func (l *LocalStorage) DeleteFile(_ context.Context, objectKey string) error {
	path, err := l.Path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalStorage) GetPublicLinkKey(objectKey string) string {
	return l.baseURL + ImageRoute + objectKey
}

func (l *LocalStorage) GetObjectKeyFromLink(link string) string {
	i := strings.LastIndex(link, ImageRoute)
	if i < 0 {
		return ""
	}
	return link[i+len(ImageRoute):]
}
