package vehicle

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 车辆状态枚举（持久化为字符串）。
type Status string

const (
	StatusAvailable   Status = "available"   // 空闲，可被下单
	StatusRented      Status = "rented"      // 已租出
	StatusMaintenance Status = "maintenance" // 维修/保养中
	StatusDelisted    Status = "delisted"    // 已下架
)

// Valid 判断是否是已知的车辆状态。
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance, StatusDelisted:
		return true
	}
	return false
}

// Label 状态展示文案。
func (s Status) Label() string {
	switch s {
	case StatusAvailable:
		return "空闲"
	case StatusRented:
		return "已租"
	case StatusMaintenance:
		return "维修中"
	case StatusDelisted:
		return "已下架"
	default:
		return "未知"
	}
}

// Vehicle 是 vehicles 表的 GORM 模型。
// 状态只允许两条路径修改：订单生命周期（rented ↔ available）
// 和管理端维修/下架操作。
type Vehicle struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Brand       string          `gorm:"size:50" json:"brand"`
	Model       string          `gorm:"size:50" json:"model"`
	PlateNumber string          `gorm:"uniqueIndex;size:20;not null" json:"plateNumber"`
	CategoryID  int64           `gorm:"index;not null" json:"categoryId"`
	StoreID     int64           `gorm:"index;not null" json:"storeId"`
	Status      Status          `gorm:"type:varchar(16);index;not null" json:"status"`
	DailyRate   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"dailyRate"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}
