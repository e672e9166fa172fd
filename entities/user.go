package entities

import (
	"time"

	"gorm.io/datatypes"
)

var DefaultNotificationDays = []int{1, 3, 7}

type UserSettings struct {
	NotificationDays []int       `json:"notification_days"`
	DefaultCategory  *CategoryID `json:"default_category,omitempty"`
	Email            string      `json:"email,omitempty"`
}

func DefaultUserSettings() UserSettings {
	days := make([]int, len(DefaultNotificationDays))
	copy(days, DefaultNotificationDays)
	return UserSettings{NotificationDays: days}
}

type User struct {
	ID        UserID                           `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string                           `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password  string                           `gorm:"not null" json:"-"`
	Settings  datatypes.JSONType[UserSettings] `json:"settings"`
	CreatedAt time.Time                        `gorm:"autoCreateTime" json:"created_at"`
}
