package storage

import (
	"Prazo-Certo/entities"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationalStore is the Store over a gorm connection. It performs no
// retries; a failing query is returned as-is for the Proxy to act on.
type RelationalStore struct {
	db    *gorm.DB
	clock Clock
}

var _ Store = (*RelationalStore)(nil)

func NewRelationalStore(db *gorm.DB, opts ...Option) *RelationalStore {
	o := buildOptions(opts)
	return &RelationalStore{db: db, clock: o.clock}
}

func (r *RelationalStore) now() time.Time {
	return r.clock().UTC()
}

func notFoundAsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// User operations

func (r *RelationalStore) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	existing, err := r.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
	}

	if user.Settings.Data().NotificationDays == nil {
		settings := user.Settings.Data()
		settings.NotificationDays = entities.DefaultUserSettings().NotificationDays
		user.Settings = datatypes.NewJSONType(settings)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateWriteError(err)
	}
	return user, nil
}

func (r *RelationalStore) GetUserByID(ctx context.Context, id entities.UserID) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return notFoundAsNil(&user, err)
}

func (r *RelationalStore) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return notFoundAsNil(&user, err)
}

func (r *RelationalStore) ListUsers(ctx context.Context) ([]*entities.User, error) {
	var users []*entities.User
	if err := r.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *RelationalStore) UpdateUserSettings(ctx context.Context, id entities.UserID, settings entities.UserSettings) (*entities.User, error) {
	res := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ?", id).
		Update("settings", datatypes.NewJSONType(settings))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return r.GetUserByID(ctx, id)
}

// Category operations

func (r *RelationalStore) CreateCategory(ctx context.Context, category *entities.Category) (*entities.Category, error) {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = r.now()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, translateWriteError(err)
	}
	return category, nil
}

func (r *RelationalStore) GetCategoryByID(ctx context.Context, id entities.CategoryID) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	return notFoundAsNil(&category, err)
}

func (r *RelationalStore) GetCategoriesByUserID(ctx context.Context, userID entities.UserID) ([]*entities.Category, error) {
	var categories []*entities.Category
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").Order("id asc").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *RelationalStore) UpdateCategory(ctx context.Context, id entities.CategoryID, patch CategoryPatch) (*entities.Category, error) {
	if patch.empty() {
		category, err := r.GetCategoryByID(ctx, id)
		if err == nil && category == nil {
			err = fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return category, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}

	res := r.db.WithContext(ctx).Model(&entities.Category{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	return r.GetCategoryByID(ctx, id)
}

func (r *RelationalStore) DeleteCategory(ctx context.Context, id entities.CategoryID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&entities.Product{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return fmt.Errorf("%w: category %s has %d products", ErrCategoryInUse, id, inUse)
		}

		if err := tx.Model(&entities.ShoppingItem{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&entities.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return nil
	})
}

// Product operations

func (r *RelationalStore) CreateProduct(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	product.ExpirationDate = product.ExpirationDate.UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return nil, translateWriteError(err)
	}
	category, err := r.loadCategory(ctx, &product.CategoryID)
	if err != nil {
		return nil, err
	}
	product.Category = category
	return product, nil
}

// loadCategory fetches the category a new row points at, so creates come back
// in the same shape as reads.
func (r *RelationalStore) loadCategory(ctx context.Context, id *entities.CategoryID) (*entities.Category, error) {
	if id == nil {
		return nil, nil
	}
	var category entities.Category
	res := r.db.WithContext(ctx).Where("id = ?", *id).Limit(1).Find(&category)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *RelationalStore) GetProductByID(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	var product entities.Product
	err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error
	return notFoundAsNil(&product, err)
}

var productSortColumns = map[string]string{
	SortByExpiration: "expiration_date",
	SortByName:       "LOWER(name)",
	SortByCreatedAt:  "created_at",
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// applyProductFilter mirrors ProductFilter.matches as SQL.
func applyProductFilter(q *gorm.DB, f ProductFilter, now time.Time) *gorm.DB {
	switch f.Status {
	case StatusActive:
		q = q.Where("consumed = ? AND discarded = ?", false, false)
	case StatusConsumed:
		q = q.Where("consumed = ?", true)
	case StatusDiscarded:
		q = q.Where("discarded = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.ExpiringOnly {
		q = q.Where("expiration_date >= ?", now)
	}
	if f.ExpiredOnly {
		q = q.Where("expiration_date < ?", now)
	}
	if f.Search != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	return q
}

func (r *RelationalStore) GetProductsByUserID(ctx context.Context, userID entities.UserID, filter ProductFilter) ([]*entities.Product, error) {
	f := filter.normalized()
	q := applyProductFilter(r.db.WithContext(ctx).Where("user_id = ?", userID), f, r.now())

	q = q.Order(productSortColumns[f.SortBy] + " " + f.SortOrder).Order("id asc")
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var products []*entities.Product
	if err := q.Preload("Category").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RelationalStore) GetExpiringProducts(ctx context.Context, userID entities.UserID, days int) ([]*entities.Product, error) {
	now := r.now()
	threshold := now.Add(time.Duration(days) * 24 * time.Hour)

	var products []*entities.Product
	if err := r.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND consumed = ? AND discarded = ?", userID, false, false).
		Where("expiration_date >= ? AND expiration_date < ?", now, threshold).
		Order("expiration_date asc").Order("id asc").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RelationalStore) updateProduct(ctx context.Context, id entities.ProductID, updates map[string]interface{}) (*entities.Product, error) {
	res := r.db.WithContext(ctx).Model(&entities.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return r.GetProductByID(ctx, id)
}

func (r *RelationalStore) UpdateProduct(ctx context.Context, id entities.ProductID, patch ProductPatch) (*entities.Product, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Image != nil {
		updates["image"] = *patch.Image
	}
	if patch.ExpirationDate != nil {
		updates["expiration_date"] = patch.ExpirationDate.UTC()
	}
	if patch.CategoryID != nil {
		updates["category_id"] = *patch.CategoryID
	}
	if patch.AutoReplenish != nil {
		updates["auto_replenish"] = *patch.AutoReplenish
	}
	if patch.Consumed != nil {
		updates["consumed"] = *patch.Consumed
	}
	if patch.Discarded != nil {
		updates["discarded"] = *patch.Discarded
	}
	if patch.Notified != nil {
		updates["notified"] = *patch.Notified
	}

	if len(updates) == 0 {
		product, err := r.GetProductByID(ctx, id)
		if err == nil && product == nil {
			err = fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return product, err
	}
	return r.updateProduct(ctx, id, updates)
}

func (r *RelationalStore) MarkProductConsumed(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return r.updateProduct(ctx, id, map[string]interface{}{"consumed": true, "consumed_at": r.now()})
}

func (r *RelationalStore) MarkProductDiscarded(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return r.updateProduct(ctx, id, map[string]interface{}{"discarded": true, "discarded_at": r.now()})
}

func (r *RelationalStore) MarkProductNotified(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return r.updateProduct(ctx, id, map[string]interface{}{"notified": true})
}

func (r *RelationalStore) DeleteProduct(ctx context.Context, id entities.ProductID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return nil
}

func (r *RelationalStore) DeleteExpiredProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND expiration_date < ?", userID, r.now()).
		Delete(&entities.Product{})
	return res.RowsAffected, res.Error
}

func (r *RelationalStore) DeleteAllProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entities.Product{})
	return res.RowsAffected, res.Error
}

// Shopping list operations

func (r *RelationalStore) CreateShoppingItem(ctx context.Context, item *entities.ShoppingItem) (*entities.ShoppingItem, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return nil, translateWriteError(err)
	}
	category, err := r.loadCategory(ctx, item.CategoryID)
	if err != nil {
		return nil, err
	}
	item.Category = category
	return item, nil
}

func (r *RelationalStore) GetShoppingItemByID(ctx context.Context, id entities.ShoppingItemID) (*entities.ShoppingItem, error) {
	var item entities.ShoppingItem
	err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&item).Error
	return notFoundAsNil(&item, err)
}

func (r *RelationalStore) GetShoppingItemsByUserID(ctx context.Context, userID entities.UserID) ([]*entities.ShoppingItem, error) {
	var items []*entities.ShoppingItem
	if err := r.db.WithContext(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Order("purchased asc").Order("created_at asc").Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RelationalStore) MarkShoppingItemPurchased(ctx context.Context, id entities.ShoppingItemID, purchased bool) (*entities.ShoppingItem, error) {
	updates := map[string]interface{}{"purchased": purchased, "purchased_at": nil}
	if purchased {
		updates["purchased_at"] = r.now()
	}
	res := r.db.WithContext(ctx).Model(&entities.ShoppingItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: shopping item %s", ErrNotFound, id)
	}
	return r.GetShoppingItemByID(ctx, id)
}

func (r *RelationalStore) DeleteShoppingItem(ctx context.Context, id entities.ShoppingItemID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.ShoppingItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: shopping item %s", ErrNotFound, id)
	}
	return nil
}

func (r *RelationalStore) AddProductToShoppingList(ctx context.Context, productID entities.ProductID, userID entities.UserID) (*entities.ShoppingItem, error) {
	product, err := r.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}

	var open entities.ShoppingItem
	err = r.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND product_id = ? AND purchased = ?", userID, productID, false).
		Order("id asc").
		First(&open).Error
	if err == nil {
		return &open, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return r.CreateShoppingItem(ctx, &entities.ShoppingItem{
		Name:       product.Name,
		UserID:     userID,
		CategoryID: ptr(product.CategoryID),
		ProductID:  ptr(product.ID),
	})
}

// Aggregates

func (r *RelationalStore) GetExpirationSummary(ctx context.Context, userID entities.UserID) (ExpirationSummary, error) {
	now := r.clock()
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1).UTC()
	afterThree := today.AddDate(0, 0, 4).UTC()
	afterSeven := today.AddDate(0, 0, 8).UTC()
	todayUTC := today.UTC()

	var row struct {
		Expired int
		Today   int
		Three   int
		Seven   int
		Later   int
		Total   int
	}
	err := r.db.WithContext(ctx).Model(&entities.Product{}).
		Select(`COUNT(CASE WHEN expiration_date < ? THEN 1 END) AS expired,
			COUNT(CASE WHEN expiration_date >= ? AND expiration_date < ? THEN 1 END) AS today,
			COUNT(CASE WHEN expiration_date >= ? AND expiration_date < ? THEN 1 END) AS three,
			COUNT(CASE WHEN expiration_date >= ? AND expiration_date < ? THEN 1 END) AS seven,
			COUNT(CASE WHEN expiration_date >= ? THEN 1 END) AS later,
			COUNT(*) AS total`,
			todayUTC,
			todayUTC, tomorrow,
			tomorrow, afterThree,
			afterThree, afterSeven,
			afterSeven).
		Where("user_id = ? AND consumed = ? AND discarded = ?", userID, false, false).
		Scan(&row).Error
	if err != nil {
		return ExpirationSummary{}, err
	}

	return ExpirationSummary{
		ExpiringToday:       row.Today,
		ExpiringInThreeDays: row.Three,
		ExpiringInSevenDays: row.Seven,
		NonExpiring:         row.Later,
		Expired:             row.Expired,
		Total:               row.Total,
	}, nil
}

func (r *RelationalStore) GetConsumptionStats(ctx context.Context, userID entities.UserID) (ConsumptionStats, error) {
	var row struct {
		Consumed  int
		Discarded int
		Total     int
	}
	err := r.db.WithContext(ctx).Model(&entities.Product{}).
		Select(`COUNT(CASE WHEN consumed = ? THEN 1 END) AS consumed,
			COUNT(CASE WHEN discarded = ? THEN 1 END) AS discarded,
			COUNT(*) AS total`, true, true).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return ConsumptionStats{}, err
	}
	return newConsumptionStats(row.Consumed, row.Discarded, row.Total), nil
}

func (r *RelationalStore) ProcessAutoReplenish(ctx context.Context, userID entities.UserID) (int, error) {
	var candidates []*entities.Product
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND auto_replenish = ? AND notified = ?", userID, true, false).
		Where("consumed = ? OR discarded = ?", true, true).
		Order("id asc").
		Find(&candidates).Error; err != nil {
		return 0, err
	}

	for _, product := range candidates {
		if _, err := r.AddProductToShoppingList(ctx, product.ID, userID); err != nil {
			return 0, err
		}
		if _, err := r.MarkProductNotified(ctx, product.ID); err != nil {
			return 0, err
		}
	}
	return len(candidates), nil
}

// Lifecycle

// Ping runs the same kind of read the application does, not just a socket
// check, so a reachable server with a broken schema still fails the probe.
func (r *RelationalStore) Ping(ctx context.Context) error {
	var users []entities.User
	return r.db.WithContext(ctx).Limit(1).Find(&users).Error
}

func (r *RelationalStore) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&entities.User{},
		&entities.Category{},
		&entities.Product{},
		&entities.ShoppingItem{},
	)
}

func (r *RelationalStore) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
