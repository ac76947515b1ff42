package maintenance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record 车辆维保记录。开单期间车辆进入 maintenance 状态，不可租。
type Record struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	VehicleID   int64           `gorm:"index;not null" json:"vehicleId"`
	Type        string          `gorm:"size:32;not null" json:"type"` // 保养 / 维修 / 年检
	Cost        decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost"`
	StartDate   time.Time       `gorm:"not null" json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Record) TableName() string {
	return "maintenance_records"
}
