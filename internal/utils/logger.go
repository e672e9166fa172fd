package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const logPermission = 0664

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger writes structured logs to path and to stderr. An empty path logs
// to stderr only.
func NewLogger(path string) (zerolog.Logger, io.Closer, error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}
	if path == "" {
		return zerolog.New(console).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return zerolog.Logger{}, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logPermission)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	out := zerolog.MultiLevelWriter(zerolog.SyncWriter(file), console)
	return zerolog.New(out).With().Timestamp().Logger(), file, nil
}
