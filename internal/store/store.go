package store

import "time"

// Store 门店 GORM 模型。取车 / 还车都挂在门店上。
type Store struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	City      string    `gorm:"size:32;index;not null" json:"city"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:32" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Store) TableName() string {
	return "stores"
}
