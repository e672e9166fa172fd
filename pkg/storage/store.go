// Package storage holds the persistence layer: one Store contract implemented
// by a relational adapter (gorm) and a hierarchical adapter (a schemaless tree
// store), plus the failover Proxy the rest of the application talks to.
//
// Both adapters return records already normalized to the entities package, so
// the Proxy never translates arguments or results. Missing records on lookups
// come back as (nil, nil). Updates and deletes of missing records return
// ErrNotFound.
package storage

import (
	"Prazo-Certo/entities"
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrCategoryInUse      = errors.New("category still has products")
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

// isDomainError reports errors that describe the data rather than the health
// of the backend that produced them.
func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrCategoryInUse) ||
		errors.Is(err, entities.ErrInvalidID)
}

type (
	Store interface {
		CreateUser(ctx context.Context, user *entities.User) (*entities.User, error)
		GetUserByID(ctx context.Context, id entities.UserID) (*entities.User, error)
		GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
		ListUsers(ctx context.Context) ([]*entities.User, error)
		UpdateUserSettings(ctx context.Context, id entities.UserID, settings entities.UserSettings) (*entities.User, error)

		CreateCategory(ctx context.Context, category *entities.Category) (*entities.Category, error)
		GetCategoryByID(ctx context.Context, id entities.CategoryID) (*entities.Category, error)
		GetCategoriesByUserID(ctx context.Context, userID entities.UserID) ([]*entities.Category, error)
		UpdateCategory(ctx context.Context, id entities.CategoryID, patch CategoryPatch) (*entities.Category, error)
		DeleteCategory(ctx context.Context, id entities.CategoryID) error

		CreateProduct(ctx context.Context, product *entities.Product) (*entities.Product, error)
		GetProductByID(ctx context.Context, id entities.ProductID) (*entities.Product, error)
		GetProductsByUserID(ctx context.Context, userID entities.UserID, filter ProductFilter) ([]*entities.Product, error)
		GetExpiringProducts(ctx context.Context, userID entities.UserID, days int) ([]*entities.Product, error)
		UpdateProduct(ctx context.Context, id entities.ProductID, patch ProductPatch) (*entities.Product, error)
		MarkProductConsumed(ctx context.Context, id entities.ProductID) (*entities.Product, error)
		MarkProductDiscarded(ctx context.Context, id entities.ProductID) (*entities.Product, error)
		MarkProductNotified(ctx context.Context, id entities.ProductID) (*entities.Product, error)
		DeleteProduct(ctx context.Context, id entities.ProductID) error
		DeleteExpiredProducts(ctx context.Context, userID entities.UserID) (int64, error)
		DeleteAllProducts(ctx context.Context, userID entities.UserID) (int64, error)

		CreateShoppingItem(ctx context.Context, item *entities.ShoppingItem) (*entities.ShoppingItem, error)
		GetShoppingItemByID(ctx context.Context, id entities.ShoppingItemID) (*entities.ShoppingItem, error)
		GetShoppingItemsByUserID(ctx context.Context, userID entities.UserID) ([]*entities.ShoppingItem, error)
		MarkShoppingItemPurchased(ctx context.Context, id entities.ShoppingItemID, purchased bool) (*entities.ShoppingItem, error)
		DeleteShoppingItem(ctx context.Context, id entities.ShoppingItemID) error
		AddProductToShoppingList(ctx context.Context, productID entities.ProductID, userID entities.UserID) (*entities.ShoppingItem, error)

		GetExpirationSummary(ctx context.Context, userID entities.UserID) (ExpirationSummary, error)
		GetConsumptionStats(ctx context.Context, userID entities.UserID) (ConsumptionStats, error)
		ProcessAutoReplenish(ctx context.Context, userID entities.UserID) (int, error)

		Ping(ctx context.Context) error
		Migrate(ctx context.Context) error
		Close() error
	}

	CategoryPatch struct {
		Name  *string
		Icon  *string
		Color *string
	}

	ProductPatch struct {
		Name           *string
		Image          *string
		ExpirationDate *time.Time
		CategoryID     *entities.CategoryID
		AutoReplenish  *bool
		Consumed       *bool
		Discarded      *bool
		Notified       *bool
	}

	ExpirationSummary struct {
		ExpiringToday       int `json:"expiring_today"`
		ExpiringInThreeDays int `json:"expiring_in_three_days"`
		ExpiringInSevenDays int `json:"expiring_in_seven_days"`
		NonExpiring         int `json:"non_expiring"`
		Expired             int `json:"expired"`
		Total               int `json:"total"`
	}

	ConsumptionStats struct {
		Consumed              int     `json:"consumed"`
		Discarded             int     `json:"discarded"`
		Total                 int     `json:"total"`
		WastePercentage       float64 `json:"waste_percentage"`
		ConsumptionPercentage float64 `json:"consumption_percentage"`
	}
)

func (p CategoryPatch) empty() bool {
	return p.Name == nil && p.Icon == nil && p.Color == nil
}

// Clock lets tests pin "now". Day boundaries are taken in the location of the
// returned time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now()
}

// startOfDay truncates t to local midnight in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// expiryBucket places one expiration date relative to now, counting whole
// calendar days in now's location.
type expiryBucket int

const (
	bucketExpired expiryBucket = iota
	bucketToday
	bucketThreeDays
	bucketSevenDays
	bucketLater
)

func bucketFor(expiration, now time.Time) expiryBucket {
	today := startOfDay(now)
	day := startOfDay(expiration.In(now.Location()))
	switch {
	case day.Before(today):
		return bucketExpired
	case day.Equal(today):
		return bucketToday
	case !day.After(today.AddDate(0, 0, 3)):
		return bucketThreeDays
	case !day.After(today.AddDate(0, 0, 7)):
		return bucketSevenDays
	default:
		return bucketLater
	}
}

func (s *ExpirationSummary) add(b expiryBucket) {
	s.Total++
	switch b {
	case bucketExpired:
		s.Expired++
	case bucketToday:
		s.ExpiringToday++
	case bucketThreeDays:
		s.ExpiringInThreeDays++
	case bucketSevenDays:
		s.ExpiringInSevenDays++
	default:
		s.NonExpiring++
	}
}

// SummarizeExpirations reduces the active products of a collection into
// summary buckets.
func SummarizeExpirations(products []*entities.Product, now time.Time) ExpirationSummary {
	var summary ExpirationSummary
	for _, p := range products {
		if !p.Active() {
			continue
		}
		summary.add(bucketFor(p.ExpirationDate, now))
	}
	return summary
}

func newConsumptionStats(consumed, discarded, total int) ConsumptionStats {
	stats := ConsumptionStats{Consumed: consumed, Discarded: discarded, Total: total}
	if total > 0 {
		stats.WastePercentage = float64(discarded) / float64(total) * 100
		stats.ConsumptionPercentage = float64(consumed) / float64(total) * 100
	}
	return stats
}

func ptr[T any](v T) *T {
	return &v
}
