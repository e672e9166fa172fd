package tree

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// Firebase stores collections as top-level children of a Realtime Database.
type Firebase struct {
	client *db.Client
}

func NewFirebase(ctx context.Context, databaseURL, credentialsFile string) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database: %w", err)
	}
	return &Firebase{client: client}, nil
}

func (f *Firebase) Push(ctx context.Context, collection string, doc Document) (string, error) {
	if err := checkPath(collection); err != nil {
		return "", err
	}
	ref, err := f.client.NewRef(collection).Push(ctx, map[string]any(doc))
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

func (f *Firebase) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := checkPath(collection, key); err != nil {
		return nil, err
	}
	var doc Document
	if err := f.client.NewRef(collection).Child(key).Get(ctx, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *Firebase) List(ctx context.Context, collection string) (map[string]Document, error) {
	if err := checkPath(collection); err != nil {
		return nil, err
	}
	var docs map[string]Document
	if err := f.client.NewRef(collection).Get(ctx, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = map[string]Document{}
	}
	return docs, nil
}

func (f *Firebase) Update(ctx context.Context, collection, key string, fields Document) error {
	if err := checkPath(collection, key); err != nil {
		return err
	}
	return f.client.NewRef(collection).Child(key).Update(ctx, map[string]interface{}(fields))
}

func (f *Firebase) Delete(ctx context.Context, collection, key string) error {
	if err := checkPath(collection, key); err != nil {
		return err
	}
	return f.client.NewRef(collection).Child(key).Delete(ctx)
}

// Ping reads the root shallowly, which only transfers the top-level keys.
func (f *Firebase) Ping(ctx context.Context) error {
	var root map[string]any
	return f.client.NewRef("/").GetShallow(ctx, &root)
}

func (f *Firebase) Close() error {
	return nil
}
