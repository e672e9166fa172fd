package storage

import (
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/storage/tree"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// faultInjector makes every gorm statement fail while enabled and counts the
// statements that reached gorm.
type faultInjector struct {
	failing    atomic.Bool
	statements atomic.Int64
}

var errConnectionRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (f *faultInjector) register(t *testing.T, db *gorm.DB) {
	t.Helper()
	hook := func(tx *gorm.DB) {
		f.statements.Add(1)
		if f.failing.Load() {
			_ = tx.AddError(errConnectionRefused)
		}
	}
	cb := db.Callback()
	require.NoError(t, cb.Create().Before("gorm:create").Register("test:fault_create", hook))
	require.NoError(t, cb.Query().Before("gorm:query").Register("test:fault_query", hook))
	require.NoError(t, cb.Update().Before("gorm:update").Register("test:fault_update", hook))
	require.NoError(t, cb.Delete().Before("gorm:delete").Register("test:fault_delete", hook))
	require.NoError(t, cb.Row().Before("gorm:row").Register("test:fault_row", hook))
	require.NoError(t, cb.Raw().Before("gorm:raw").Register("test:fault_raw", hook))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestRelational(t *testing.T, clock Clock) *RelationalStore {
	t.Helper()
	store := NewRelationalStore(openTestDB(t), WithClock(clock))
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newFaultyRelational(t *testing.T, clock Clock) (*RelationalStore, *faultInjector) {
	t.Helper()
	db := openTestDB(t)
	store := NewRelationalStore(db, WithClock(clock))
	require.NoError(t, store.Migrate(context.Background()))

	faults := &faultInjector{}
	faults.register(t, db)
	return store, faults
}

func newTestHierarchical(t *testing.T, clock Clock) *HierarchicalStore {
	t.Helper()
	return NewHierarchicalStore(tree.NewMemory(), WithClock(clock))
}

type fixture struct {
	user     *entities.User
	category *entities.Category
}

func seedUser(t *testing.T, s Store, username string) fixture {
	t.Helper()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, &entities.User{Username: username, Password: "hash"})
	require.NoError(t, err)
	require.False(t, user.ID.IsZero())

	category, err := s.CreateCategory(ctx, &entities.Category{
		Name:   "Frutas",
		Icon:   "nutrition",
		Color:  "#4CAF50",
		UserID: user.ID,
	})
	require.NoError(t, err)
	return fixture{user: user, category: category}
}

func seedProduct(t *testing.T, s Store, f fixture, name string, expiresIn time.Duration) *entities.Product {
	t.Helper()
	product, err := s.CreateProduct(context.Background(), &entities.Product{
		Name:           name,
		ExpirationDate: testNow.Add(expiresIn),
		CategoryID:     f.category.ID,
		UserID:         f.user.ID,
	})
	require.NoError(t, err)
	return product
}

func day(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
