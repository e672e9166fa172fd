package entities

import "time"

type Category struct {
	ID        CategoryID `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Icon      string     `gorm:"not null" json:"icon"`
	Color     string     `gorm:"not null" json:"color"`
	UserID    UserID     `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// DefaultCategories is the set every new account starts with.
func DefaultCategories(userID UserID) []*Category {
	return []*Category{
		{Name: "Frutas", Icon: "nutrition", Color: "#4CAF50", UserID: userID},
		{Name: "Laticínios", Icon: "egg", Color: "#FFC107", UserID: userID},
		{Name: "Carnes", Icon: "restaurant", Color: "#F44336", UserID: userID},
		{Name: "Cereais", Icon: "grass", Color: "#9C27B0", UserID: userID},
		{Name: "Vegetais", Icon: "eco", Color: "#8BC34A", UserID: userID},
		{Name: "Bebidas", Icon: "local_bar", Color: "#03A9F4", UserID: userID},
	}
}
