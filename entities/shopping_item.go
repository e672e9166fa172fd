package entities

import "time"

type ShoppingItem struct {
	ID          ShoppingItemID `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Purchased   bool           `gorm:"not null;default:false" json:"purchased"`
	UserID      UserID         `gorm:"not null;index" json:"user_id"`
	CategoryID  *CategoryID    `gorm:"index" json:"category_id,omitempty"`
	ProductID   *ProductID     `gorm:"index" json:"product_id,omitempty"`
	PurchasedAt *time.Time     `json:"purchased_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
