package storage

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/nfnt/resize"
)

var (
	AllowImage = []string{"image/jpeg", "image/jpg", "image/png"}

	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file too large")
)

const (
	MaxUploadSize = 10 << 20
	jpegQuality   = 80
)

// PrepareImage reads an uploaded photo, scales it down to maxWidth keeping the
// aspect ratio and re-encodes it as JPEG. Images narrower than maxWidth are
// only re-encoded.
func PrepareImage(file *multipart.FileHeader, maxWidth uint) ([]byte, error) {
	if file.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	return ResizeImage(data, maxWidth)
}

func ResizeImage(data []byte, maxWidth uint) ([]byte, error) {
	contentType := http.DetectContentType(data)
	if !slices.Contains(AllowImage, contentType) {
		return nil, ErrFileTypeNotAllowed
	}

	var (
		img image.Image
		err error
	)
	if contentType == "image/png" {
		img, err = png.Decode(bytes.NewReader(data))
	} else {
		img, err = jpeg.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}

	if maxWidth > 0 && uint(img.Bounds().Dx()) > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
