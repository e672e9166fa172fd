package tree

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// Surreal keeps each document in the body field of a record so that the
// document's own "id" never collides with the record id.
type Surreal struct {
	db *surrealdb.DB
}

type surrealRecord struct {
	ID   *models.RecordID `json:"id,omitempty"`
	Body map[string]any   `json:"body"`
}

type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

func NewSurreal(ctx context.Context, cfg SurrealConfig) (*Surreal, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("surreal url: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	db, err := surrealdb.FromConnection(ctx, gorillaws.New(conf))
	if err != nil {
		return nil, fmt.Errorf("surreal connect: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("surreal signin: %w", err)
		}
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("surreal use: %w", err)
	}
	return &Surreal{db: db}, nil
}

// isNoResult matches the errors the SDK returns when a record select comes
// back empty.
func isNoResult(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

func recordKey(id *models.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id.ID)
}

func (s *Surreal) Push(ctx context.Context, collection string, doc Document) (string, error) {
	if err := checkPath(collection); err != nil {
		return "", err
	}
	key := strings.ReplaceAll(uuid.NewString(), "-", "")
	rid := models.NewRecordID(collection, key)
	if _, err := surrealdb.Create[surrealRecord](ctx, s.db, rid, map[string]any{"body": map[string]any(doc)}); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Surreal) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := checkPath(collection, key); err != nil {
		return nil, err
	}
	rec, err := surrealdb.Select[surrealRecord](ctx, s.db, models.NewRecordID(collection, key))
	if err != nil {
		if isNoResult(err) {
			return nil, nil
		}
		return nil, err
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.Body, nil
}

func (s *Surreal) List(ctx context.Context, collection string) (map[string]Document, error) {
	if err := checkPath(collection); err != nil {
		return nil, err
	}
	recs, err := surrealdb.Select[[]surrealRecord](ctx, s.db, models.Table(collection))
	if err != nil {
		if isNoResult(err) {
			return map[string]Document{}, nil
		}
		return nil, err
	}

	out := map[string]Document{}
	if recs == nil {
		return out, nil
	}
	for _, rec := range *recs {
		if key := recordKey(rec.ID); key != "" {
			out[key] = rec.Body
		}
	}
	return out, nil
}

func (s *Surreal) Update(ctx context.Context, collection, key string, fields Document) error {
	if err := checkPath(collection, key); err != nil {
		return err
	}
	_, err := surrealdb.Query[any](ctx, s.db, "UPSERT $rid MERGE $patch", map[string]any{
		"rid":   models.NewRecordID(collection, key),
		"patch": map[string]any{"body": map[string]any(fields)},
	})
	return err
}

func (s *Surreal) Delete(ctx context.Context, collection, key string) error {
	if err := checkPath(collection, key); err != nil {
		return err
	}
	_, err := surrealdb.Delete[surrealRecord](ctx, s.db, models.NewRecordID(collection, key))
	if err != nil && isNoResult(err) {
		return nil
	}
	return err
}

func (s *Surreal) Ping(ctx context.Context) error {
	_, err := surrealdb.Query[any](ctx, s.db, "RETURN true", nil)
	return err
}

func (s *Surreal) Close() error {
	return s.db.Close(context.Background())
}
