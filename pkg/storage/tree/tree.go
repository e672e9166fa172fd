// Package tree holds the drivers behind the hierarchical storage backend. A
// tree is a set of named collections, each a map from an opaque string key to
// a JSON-like document.
package tree

import (
	"context"
	"errors"
)

var (
	ErrEmptyPath = errors.New("tree: collection and key must not be empty")
	ErrClosed    = errors.New("tree: closed")
)

// Document is a decoded JSON object. Numbers may come back as float64,
// json.Number or an integer type depending on the driver.
type Document map[string]any

type Tree interface {
	// Push stores doc under a fresh key generated by the driver.
	Push(ctx context.Context, collection string, doc Document) (string, error)
	// Get returns nil without error when the key holds nothing.
	Get(ctx context.Context, collection, key string) (Document, error)
	List(ctx context.Context, collection string) (map[string]Document, error)
	// Update merges fields into the document at key. A nil value clears
	// the field.
	Update(ctx context.Context, collection, key string, fields Document) error
	Delete(ctx context.Context, collection, key string) error
	Ping(ctx context.Context) error
	Close() error
}

func checkPath(collection string, key ...string) error {
	if collection == "" {
		return ErrEmptyPath
	}
	for _, k := range key {
		if k == "" {
			return ErrEmptyPath
		}
	}
	return nil
}
