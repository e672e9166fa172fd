package entities

import "time"

// Product flags are independent: consumed and discarded may both be set.
type Product struct {
	ID             ProductID  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	Image          *string    `json:"image,omitempty"`
	ExpirationDate time.Time  `gorm:"not null;index" json:"expiration_date"`
	CategoryID     CategoryID `gorm:"not null;index" json:"category_id"`
	UserID         UserID     `gorm:"not null;index" json:"user_id"`
	Consumed       bool       `gorm:"not null;default:false" json:"consumed"`
	Discarded      bool       `gorm:"not null;default:false" json:"discarded"`
	Notified       bool       `gorm:"not null;default:false" json:"notified"`
	AutoReplenish  bool       `gorm:"not null;default:false" json:"auto_replenish"`
	ConsumedAt     *time.Time `json:"consumed_at,omitempty"`
	DiscardedAt    *time.Time `json:"discarded_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (p *Product) Active() bool {
	return !p.Consumed && !p.Discarded
}
