package storage

import (
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/storage/tree"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
)

// HierarchicalStore is the Store over a document tree. The tree has no
// secondary indexes, so every lookup scans a whole collection and all
// filtering happens here.
type HierarchicalStore struct {
	tree  tree.Tree
	clock Clock
	ids   *idMinter
}

var _ Store = (*HierarchicalStore)(nil)

func NewHierarchicalStore(t tree.Tree, opts ...Option) *HierarchicalStore {
	o := buildOptions(opts)
	return &HierarchicalStore{
		tree:  t,
		clock: o.clock,
		ids:   &idMinter{clock: o.clock},
	}
}

// idMinter hands out numeric ids from the millisecond clock, bumped so that
// ids from one process are strictly increasing even within a millisecond.
type idMinter struct {
	mu    sync.Mutex
	last  int64
	clock Clock
}

func (m *idMinter) next() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.clock().UnixMilli()
	if id <= m.last {
		id = m.last + 1
	}
	m.last = id
	return id
}

func (h *HierarchicalStore) now() time.Time {
	return h.clock().UTC()
}

type entry[T any] struct {
	key string
	doc *T
}

// scan decodes every document of a collection. Records that cannot be
// decoded are skipped rather than failing the whole read.
func scan[T any](ctx context.Context, t tree.Tree, collection string) ([]entry[T], error) {
	docs, err := t.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]entry[T], 0, len(docs))
	for key, doc := range docs {
		if doc == nil {
			continue
		}
		decoded, err := fromDocument[T](doc)
		if err != nil {
			continue
		}
		if k, ok := any(decoded).(keyedDoc); ok {
			k.adoptKey(key)
		}
		out = append(out, entry[T]{key: key, doc: decoded})
	}
	return out, nil
}

// keyedDoc is implemented by documents that can fall back to their tree key
// for an id, which is how records written without an id field are read.
type keyedDoc interface {
	adoptKey(key string)
}

func find[T any](ctx context.Context, t tree.Tree, collection string, match func(key string, doc *T) bool) (*entry[T], error) {
	entries, err := scan[T](ctx, t, collection)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if match(entries[i].key, entries[i].doc) {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (h *HierarchicalStore) findUser(ctx context.Context, id entities.UserID) (*entry[userDoc], error) {
	return find(ctx, h.tree, collectionUsers, func(key string, d *userDoc) bool {
		return d.ID == id || key == id.String()
	})
}

func (h *HierarchicalStore) findCategory(ctx context.Context, id entities.CategoryID) (*entry[categoryDoc], error) {
	return find(ctx, h.tree, collectionCategories, func(key string, d *categoryDoc) bool {
		return d.ID == id || key == id.String()
	})
}

func (h *HierarchicalStore) findProduct(ctx context.Context, id entities.ProductID) (*entry[productDoc], error) {
	return find(ctx, h.tree, collectionProducts, func(key string, d *productDoc) bool {
		return d.ID == id || key == id.String()
	})
}

func (h *HierarchicalStore) findShoppingItem(ctx context.Context, id entities.ShoppingItemID) (*entry[shoppingItemDoc], error) {
	return find(ctx, h.tree, collectionShoppingItems, func(key string, d *shoppingItemDoc) bool {
		return d.ID == id || key == id.String()
	})
}

func (h *HierarchicalStore) push(ctx context.Context, collection string, v any) error {
	doc, err := toDocument(v)
	if err != nil {
		return err
	}
	_, err = h.tree.Push(ctx, collection, doc)
	return err
}

// User operations

func (h *HierarchicalStore) CreateUser(ctx context.Context, user *entities.User) (*entities.User, error) {
	existing, err := h.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username %q", ErrDuplicate, user.Username)
	}

	created := *user
	created.ID = entities.UserID(h.ids.next())
	if created.Settings.Data().NotificationDays == nil {
		settings := created.Settings.Data()
		settings.NotificationDays = entities.DefaultUserSettings().NotificationDays
		created.Settings = datatypes.NewJSONType(settings)
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = h.now()
	}

	if err := h.push(ctx, collectionUsers, newUserDoc(&created)); err != nil {
		return nil, err
	}
	return &created, nil
}

func (h *HierarchicalStore) GetUserByID(ctx context.Context, id entities.UserID) (*entities.User, error) {
	found, err := h.findUser(ctx, id)
	if err != nil || found == nil {
		return nil, err
	}
	return found.doc.entity(), nil
}

func (h *HierarchicalStore) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	entries, err := scan[userDoc](ctx, h.tree, collectionUsers)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.doc.Username == username {
			return e.doc.entity(), nil
		}
	}
	return nil, nil
}

func (h *HierarchicalStore) ListUsers(ctx context.Context) ([]*entities.User, error) {
	entries, err := scan[userDoc](ctx, h.tree, collectionUsers)
	if err != nil {
		return nil, err
	}
	users := make([]*entities.User, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.doc.entity())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (h *HierarchicalStore) UpdateUserSettings(ctx context.Context, id entities.UserID, settings entities.UserSettings) (*entities.User, error) {
	found, err := h.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}

	doc, err := toDocument(settingsDoc{
		NotificationDays: settings.NotificationDays,
		DefaultCategory:  settings.DefaultCategory,
		Email:            settings.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := h.tree.Update(ctx, collectionUsers, found.key, tree.Document{"settings": doc}); err != nil {
		return nil, err
	}
	return h.GetUserByID(ctx, id)
}

// Category operations

func (h *HierarchicalStore) CreateCategory(ctx context.Context, category *entities.Category) (*entities.Category, error) {
	created := *category
	created.ID = entities.CategoryID(h.ids.next())
	if created.CreatedAt.IsZero() {
		created.CreatedAt = h.now()
	}
	if err := h.push(ctx, collectionCategories, newCategoryDoc(&created)); err != nil {
		return nil, err
	}
	return &created, nil
}

func (h *HierarchicalStore) GetCategoryByID(ctx context.Context, id entities.CategoryID) (*entities.Category, error) {
	found, err := h.findCategory(ctx, id)
	if err != nil || found == nil {
		return nil, err
	}
	return found.doc.entity(), nil
}

func (h *HierarchicalStore) GetCategoriesByUserID(ctx context.Context, userID entities.UserID) ([]*entities.Category, error) {
	entries, err := scan[categoryDoc](ctx, h.tree, collectionCategories)
	if err != nil {
		return nil, err
	}
	categories := make([]*entities.Category, 0)
	for _, e := range entries {
		if e.doc.UserID == userID {
			categories = append(categories, e.doc.entity())
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func (h *HierarchicalStore) UpdateCategory(ctx context.Context, id entities.CategoryID, patch CategoryPatch) (*entities.Category, error) {
	found, err := h.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	if patch.empty() {
		return found.doc.entity(), nil
	}

	fields := tree.Document{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Icon != nil {
		fields["icon"] = *patch.Icon
	}
	if patch.Color != nil {
		fields["color"] = *patch.Color
	}
	if err := h.tree.Update(ctx, collectionCategories, found.key, fields); err != nil {
		return nil, err
	}
	return h.GetCategoryByID(ctx, id)
}

func (h *HierarchicalStore) DeleteCategory(ctx context.Context, id entities.CategoryID) error {
	found, err := h.findCategory(ctx, id)
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("%w: category %s", ErrNotFound, id)
	}

	products, err := scan[productDoc](ctx, h.tree, collectionProducts)
	if err != nil {
		return err
	}
	inUse := 0
	for _, e := range products {
		if e.doc.CategoryID == id {
			inUse++
		}
	}
	if inUse > 0 {
		return fmt.Errorf("%w: category %s has %d products", ErrCategoryInUse, id, inUse)
	}

	items, err := scan[shoppingItemDoc](ctx, h.tree, collectionShoppingItems)
	if err != nil {
		return err
	}
	for _, e := range items {
		if e.doc.CategoryID != nil && *e.doc.CategoryID == id {
			if err := h.tree.Update(ctx, collectionShoppingItems, e.key, tree.Document{"categoryId": nil}); err != nil {
				return err
			}
		}
	}

	return h.tree.Delete(ctx, collectionCategories, found.key)
}

// Product operations

// withCategories attaches each product's category the way the relational
// adapter preloads it.
func (h *HierarchicalStore) withCategories(ctx context.Context, products []*entities.Product) ([]*entities.Product, error) {
	if len(products) == 0 {
		return products, nil
	}
	entries, err := scan[categoryDoc](ctx, h.tree, collectionCategories)
	if err != nil {
		return nil, err
	}
	byID := make(map[entities.CategoryID]*entities.Category, len(entries))
	for _, e := range entries {
		byID[e.doc.ID] = e.doc.entity()
	}
	for _, p := range products {
		p.Category = byID[p.CategoryID]
	}
	return products, nil
}

func (h *HierarchicalStore) userProducts(ctx context.Context, userID entities.UserID) ([]entry[productDoc], error) {
	entries, err := scan[productDoc](ctx, h.tree, collectionProducts)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.doc.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (h *HierarchicalStore) CreateProduct(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	created := *product
	created.ID = entities.ProductID(h.ids.next())
	created.ExpirationDate = created.ExpirationDate.UTC()
	created.Category = nil
	if created.CreatedAt.IsZero() {
		created.CreatedAt = h.now()
	}
	if err := h.push(ctx, collectionProducts, newProductDoc(&created)); err != nil {
		return nil, err
	}
	products, err := h.withCategories(ctx, []*entities.Product{&created})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

func (h *HierarchicalStore) GetProductByID(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	found, err := h.findProduct(ctx, id)
	if err != nil || found == nil {
		return nil, err
	}
	products, err := h.withCategories(ctx, []*entities.Product{found.doc.entity()})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

func (h *HierarchicalStore) GetProductsByUserID(ctx context.Context, userID entities.UserID, filter ProductFilter) ([]*entities.Product, error) {
	f := filter.normalized()
	entries, err := h.userProducts(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	products := make([]*entities.Product, 0, len(entries))
	for _, e := range entries {
		p := e.doc.entity()
		if f.matches(p, now) {
			products = append(products, p)
		}
	}
	f.sort(products)
	return h.withCategories(ctx, f.page(products))
}

func (h *HierarchicalStore) GetExpiringProducts(ctx context.Context, userID entities.UserID, days int) ([]*entities.Product, error) {
	entries, err := h.userProducts(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := h.now()
	threshold := now.Add(time.Duration(days) * 24 * time.Hour)
	products := make([]*entities.Product, 0)
	for _, e := range entries {
		p := e.doc.entity()
		if p.Active() && !p.ExpirationDate.Before(now) && p.ExpirationDate.Before(threshold) {
			products = append(products, p)
		}
	}
	ProductFilter{SortBy: SortByExpiration, SortOrder: SortAsc}.sort(products)
	return h.withCategories(ctx, products)
}

func (h *HierarchicalStore) updateProduct(ctx context.Context, id entities.ProductID, fields tree.Document) (*entities.Product, error) {
	found, err := h.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if len(fields) > 0 {
		if err := h.tree.Update(ctx, collectionProducts, found.key, fields); err != nil {
			return nil, err
		}
	}
	return h.GetProductByID(ctx, id)
}

func (h *HierarchicalStore) UpdateProduct(ctx context.Context, id entities.ProductID, patch ProductPatch) (*entities.Product, error) {
	fields := tree.Document{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	}
	if patch.ExpirationDate != nil {
		fields["expirationDate"] = formatTime(*patch.ExpirationDate)
	}
	if patch.CategoryID != nil {
		fields["categoryId"] = int64(*patch.CategoryID)
	}
	if patch.AutoReplenish != nil {
		fields["autoReplenish"] = *patch.AutoReplenish
	}
	if patch.Consumed != nil {
		fields["consumed"] = *patch.Consumed
	}
	if patch.Discarded != nil {
		fields["discarded"] = *patch.Discarded
	}
	if patch.Notified != nil {
		fields["notified"] = *patch.Notified
	}
	return h.updateProduct(ctx, id, fields)
}

func (h *HierarchicalStore) MarkProductConsumed(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return h.updateProduct(ctx, id, tree.Document{"consumed": true, "consumedAt": formatTime(h.now())})
}

func (h *HierarchicalStore) MarkProductDiscarded(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return h.updateProduct(ctx, id, tree.Document{"discarded": true, "discardedAt": formatTime(h.now())})
}

func (h *HierarchicalStore) MarkProductNotified(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	return h.updateProduct(ctx, id, tree.Document{"notified": true})
}

func (h *HierarchicalStore) DeleteProduct(ctx context.Context, id entities.ProductID) error {
	found, err := h.findProduct(ctx, id)
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return h.tree.Delete(ctx, collectionProducts, found.key)
}

func (h *HierarchicalStore) deleteProductsWhere(ctx context.Context, userID entities.UserID, keep func(*productDoc) bool) (int64, error) {
	entries, err := h.userProducts(ctx, userID)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, e := range entries {
		if keep(e.doc) {
			continue
		}
		if err := h.tree.Delete(ctx, collectionProducts, e.key); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (h *HierarchicalStore) DeleteExpiredProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	now := h.now()
	return h.deleteProductsWhere(ctx, userID, func(p *productDoc) bool {
		return !p.ExpirationDate.Before(now)
	})
}

func (h *HierarchicalStore) DeleteAllProducts(ctx context.Context, userID entities.UserID) (int64, error) {
	return h.deleteProductsWhere(ctx, userID, func(*productDoc) bool { return false })
}

// Shopping list operations

func (h *HierarchicalStore) withItemCategories(ctx context.Context, items []*entities.ShoppingItem) ([]*entities.ShoppingItem, error) {
	if len(items) == 0 {
		return items, nil
	}
	entries, err := scan[categoryDoc](ctx, h.tree, collectionCategories)
	if err != nil {
		return nil, err
	}
	byID := make(map[entities.CategoryID]*entities.Category, len(entries))
	for _, e := range entries {
		byID[e.doc.ID] = e.doc.entity()
	}
	for _, item := range items {
		if item.CategoryID != nil {
			item.Category = byID[*item.CategoryID]
		}
	}
	return items, nil
}

func (h *HierarchicalStore) CreateShoppingItem(ctx context.Context, item *entities.ShoppingItem) (*entities.ShoppingItem, error) {
	created := *item
	created.ID = entities.ShoppingItemID(h.ids.next())
	created.Category = nil
	if created.CreatedAt.IsZero() {
		created.CreatedAt = h.now()
	}
	if err := h.push(ctx, collectionShoppingItems, newShoppingItemDoc(&created)); err != nil {
		return nil, err
	}
	items, err := h.withItemCategories(ctx, []*entities.ShoppingItem{&created})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

func (h *HierarchicalStore) GetShoppingItemByID(ctx context.Context, id entities.ShoppingItemID) (*entities.ShoppingItem, error) {
	found, err := h.findShoppingItem(ctx, id)
	if err != nil || found == nil {
		return nil, err
	}
	items, err := h.withItemCategories(ctx, []*entities.ShoppingItem{found.doc.entity()})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

func (h *HierarchicalStore) GetShoppingItemsByUserID(ctx context.Context, userID entities.UserID) ([]*entities.ShoppingItem, error) {
	entries, err := scan[shoppingItemDoc](ctx, h.tree, collectionShoppingItems)
	if err != nil {
		return nil, err
	}
	items := make([]*entities.ShoppingItem, 0)
	for _, e := range entries {
		if e.doc.UserID == userID {
			items = append(items, e.doc.entity())
		}
	}
	sortShoppingItems(items)
	return h.withItemCategories(ctx, items)
}

func sortShoppingItems(items []*entities.ShoppingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Purchased != b.Purchased {
			return !a.Purchased
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func (h *HierarchicalStore) MarkShoppingItemPurchased(ctx context.Context, id entities.ShoppingItemID, purchased bool) (*entities.ShoppingItem, error) {
	found, err := h.findShoppingItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: shopping item %s", ErrNotFound, id)
	}

	fields := tree.Document{"purchased": purchased, "purchasedAt": nil}
	if purchased {
		fields["purchasedAt"] = formatTime(h.now())
	}
	if err := h.tree.Update(ctx, collectionShoppingItems, found.key, fields); err != nil {
		return nil, err
	}
	return h.GetShoppingItemByID(ctx, id)
}

func (h *HierarchicalStore) DeleteShoppingItem(ctx context.Context, id entities.ShoppingItemID) error {
	found, err := h.findShoppingItem(ctx, id)
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("%w: shopping item %s", ErrNotFound, id)
	}
	return h.tree.Delete(ctx, collectionShoppingItems, found.key)
}

func (h *HierarchicalStore) AddProductToShoppingList(ctx context.Context, productID entities.ProductID, userID entities.UserID) (*entities.ShoppingItem, error) {
	found, err := h.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}

	items, err := h.GetShoppingItemsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var open *entities.ShoppingItem
	for _, item := range items {
		if item.Purchased || item.ProductID == nil || *item.ProductID != productID {
			continue
		}
		if open == nil || item.ID < open.ID {
			open = item
		}
	}
	if open != nil {
		return open, nil
	}

	product := found.doc.entity()
	created, err := h.CreateShoppingItem(ctx, &entities.ShoppingItem{
		Name:       product.Name,
		UserID:     userID,
		CategoryID: ptr(product.CategoryID),
		ProductID:  ptr(product.ID),
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Aggregates

func (h *HierarchicalStore) GetExpirationSummary(ctx context.Context, userID entities.UserID) (ExpirationSummary, error) {
	entries, err := h.userProducts(ctx, userID)
	if err != nil {
		return ExpirationSummary{}, err
	}
	products := make([]*entities.Product, 0, len(entries))
	for _, e := range entries {
		products = append(products, e.doc.entity())
	}
	return SummarizeExpirations(products, h.clock()), nil
}

func (h *HierarchicalStore) GetConsumptionStats(ctx context.Context, userID entities.UserID) (ConsumptionStats, error) {
	entries, err := h.userProducts(ctx, userID)
	if err != nil {
		return ConsumptionStats{}, err
	}
	consumed, discarded := 0, 0
	for _, e := range entries {
		if e.doc.Consumed {
			consumed++
		}
		if e.doc.Discarded {
			discarded++
		}
	}
	return newConsumptionStats(consumed, discarded, len(entries)), nil
}

func (h *HierarchicalStore) ProcessAutoReplenish(ctx context.Context, userID entities.UserID) (int, error) {
	entries, err := h.userProducts(ctx, userID)
	if err != nil {
		return 0, err
	}
	candidates := make([]entities.ProductID, 0)
	for _, e := range entries {
		p := e.doc
		if p.AutoReplenish && !p.Notified && (p.Consumed || p.Discarded) {
			candidates = append(candidates, p.ID)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	for _, id := range candidates {
		if _, err := h.AddProductToShoppingList(ctx, id, userID); err != nil {
			return 0, err
		}
		if _, err := h.MarkProductNotified(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(candidates), nil
}

// Lifecycle

func (h *HierarchicalStore) Ping(ctx context.Context) error {
	return h.tree.Ping(ctx)
}

// Migrate is a no-op; collections appear on first write.
func (h *HierarchicalStore) Migrate(context.Context) error {
	return nil
}

func (h *HierarchicalStore) Close() error {
	return h.tree.Close()
}
