package storage

import (
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/storage/tree"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Collection names and document shapes used in the tree. Field names are
// camelCase and every record carries its numeric id next to the tree key.
const (
	collectionUsers         = "users"
	collectionCategories    = "categories"
	collectionProducts      = "products"
	collectionShoppingItems = "shopping_items"
)

type (
	settingsDoc struct {
		NotificationDays []int                `json:"notificationDays"`
		DefaultCategory  *entities.CategoryID `json:"defaultCategory,omitempty"`
		Email            string               `json:"email,omitempty"`
	}

	userDoc struct {
		ID        entities.UserID `json:"id"`
		Username  string          `json:"username"`
		Password  string          `json:"password"`
		Settings  *settingsDoc    `json:"settings,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	categoryDoc struct {
		ID        entities.CategoryID `json:"id"`
		Name      string              `json:"name"`
		Icon      string              `json:"icon"`
		Color     string              `json:"color"`
		UserID    entities.UserID     `json:"userId"`
		CreatedAt time.Time           `json:"createdAt"`
	}

	productDoc struct {
		ID             entities.ProductID  `json:"id"`
		Name           string              `json:"name"`
		Image          *string             `json:"image,omitempty"`
		ExpirationDate time.Time           `json:"expirationDate"`
		CategoryID     entities.CategoryID `json:"categoryId"`
		UserID         entities.UserID     `json:"userId"`
		Consumed       bool                `json:"consumed"`
		Discarded      bool                `json:"discarded"`
		Notified       bool                `json:"notified"`
		AutoReplenish  bool                `json:"autoReplenish"`
		ConsumedAt     *time.Time          `json:"consumedAt,omitempty"`
		DiscardedAt    *time.Time          `json:"discardedAt,omitempty"`
		CreatedAt      time.Time           `json:"createdAt"`
	}

	shoppingItemDoc struct {
		ID          entities.ShoppingItemID `json:"id"`
		Name        string                  `json:"name"`
		Purchased   bool                    `json:"purchased"`
		UserID      entities.UserID         `json:"userId"`
		CategoryID  *entities.CategoryID    `json:"categoryId,omitempty"`
		ProductID   *entities.ProductID     `json:"productId,omitempty"`
		PurchasedAt *time.Time              `json:"purchasedAt,omitempty"`
		CreatedAt   time.Time               `json:"createdAt"`
	}
)

func (d *userDoc) adoptKey(key string) {
	if id, err := entities.ParseUserID(key); err == nil && d.ID == 0 {
		d.ID = id
	}
}

func (d *categoryDoc) adoptKey(key string) {
	if id, err := entities.ParseCategoryID(key); err == nil && d.ID == 0 {
		d.ID = id
	}
}

func (d *productDoc) adoptKey(key string) {
	if id, err := entities.ParseProductID(key); err == nil && d.ID == 0 {
		d.ID = id
	}
}

func (d *shoppingItemDoc) adoptKey(key string) {
	if id, err := entities.ParseShoppingItemID(key); err == nil && d.ID == 0 {
		d.ID = id
	}
}

func toDocument(v any) (tree.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc tree.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument[T any](doc tree.Document) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func timePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func newUserDoc(u *entities.User) userDoc {
	s := u.Settings.Data()
	return userDoc{
		ID:       u.ID,
		Username: u.Username,
		Password: u.Password,
		Settings: &settingsDoc{
			NotificationDays: s.NotificationDays,
			DefaultCategory:  s.DefaultCategory,
			Email:            s.Email,
		},
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func (d userDoc) entity() *entities.User {
	settings := entities.DefaultUserSettings()
	if d.Settings != nil {
		if d.Settings.NotificationDays != nil {
			settings.NotificationDays = d.Settings.NotificationDays
		}
		settings.DefaultCategory = d.Settings.DefaultCategory
		settings.Email = d.Settings.Email
	}
	return &entities.User{
		ID:        d.ID,
		Username:  d.Username,
		Password:  d.Password,
		Settings:  datatypes.NewJSONType(settings),
		CreatedAt: d.CreatedAt,
	}
}

func newCategoryDoc(c *entities.Category) categoryDoc {
	return categoryDoc{
		ID:        c.ID,
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func (d categoryDoc) entity() *entities.Category {
	return &entities.Category{
		ID:        d.ID,
		Name:      d.Name,
		Icon:      d.Icon,
		Color:     d.Color,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
	}
}

func newProductDoc(p *entities.Product) productDoc {
	return productDoc{
		ID:             p.ID,
		Name:           p.Name,
		Image:          p.Image,
		ExpirationDate: p.ExpirationDate.UTC(),
		CategoryID:     p.CategoryID,
		UserID:         p.UserID,
		Consumed:       p.Consumed,
		Discarded:      p.Discarded,
		Notified:       p.Notified,
		AutoReplenish:  p.AutoReplenish,
		ConsumedAt:     timePtr(p.ConsumedAt),
		DiscardedAt:    timePtr(p.DiscardedAt),
		CreatedAt:      p.CreatedAt.UTC(),
	}
}

func (d productDoc) entity() *entities.Product {
	return &entities.Product{
		ID:             d.ID,
		Name:           d.Name,
		Image:          d.Image,
		ExpirationDate: d.ExpirationDate,
		CategoryID:     d.CategoryID,
		UserID:         d.UserID,
		Consumed:       d.Consumed,
		Discarded:      d.Discarded,
		Notified:       d.Notified,
		AutoReplenish:  d.AutoReplenish,
		ConsumedAt:     d.ConsumedAt,
		DiscardedAt:    d.DiscardedAt,
		CreatedAt:      d.CreatedAt,
	}
}

func newShoppingItemDoc(i *entities.ShoppingItem) shoppingItemDoc {
	return shoppingItemDoc{
		ID:          i.ID,
		Name:        i.Name,
		Purchased:   i.Purchased,
		UserID:      i.UserID,
		CategoryID:  i.CategoryID,
		ProductID:   i.ProductID,
		PurchasedAt: timePtr(i.PurchasedAt),
		CreatedAt:   i.CreatedAt.UTC(),
	}
}

func (d shoppingItemDoc) entity() *entities.ShoppingItem {
	return &entities.ShoppingItem{
		ID:          d.ID,
		Name:        d.Name,
		Purchased:   d.Purchased,
		UserID:      d.UserID,
		CategoryID:  d.CategoryID,
		ProductID:   d.ProductID,
		PurchasedAt: d.PurchasedAt,
		CreatedAt:   d.CreatedAt,
	}
}
