package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态枚举（持久化为字符串）。
type Status string

const (
	StatusActive    Status = "active"    // 进行中：已创建，车辆已锁定
	StatusReturned  Status = "returned"  // 已还车，尾款未结清
	StatusCompleted Status = "completed" // 已完成（终态）
	StatusCancelled Status = "cancelled" // 已取消（终态）
)

// Valid 判断是否是已知的订单状态。
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusReturned, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal 判断是否终态。
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Label 状态展示文案。
func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "进行中"
	case StatusReturned:
		return "已还车"
	case StatusCompleted:
		return "已完成"
	case StatusCancelled:
		return "已取消"
	default:
		return "未知"
	}
}

// Order 订单 GORM 模型。
// TotalAmount 在创建时一次性定死；超期罚金走独立的支付记录，不回写订单金额。
type Order struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo string `gorm:"uniqueIndex;size:64;not null" json:"orderNo"`

	// 业务关联
	UserID        int64  `gorm:"index;not null" json:"userId"`
	VehicleID     int64  `gorm:"index;not null" json:"vehicleId"`
	PickupStoreID int64  `gorm:"not null" json:"pickupStoreId"`
	ReturnStoreID int64  `gorm:"not null" json:"returnStoreId"`
	Status        Status `gorm:"type:varchar(16);index;not null" json:"status"`

	// 租期
	StartTime        time.Time  `gorm:"not null" json:"startTime"`
	EndTime          time.Time  `gorm:"not null" json:"endTime"`
	ActualReturnTime *time.Time `json:"actualReturnTime,omitempty"`

	// 金额
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`

	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// TableName 固定表名 orders（order 是 SQL 保留字）。
func (Order) TableName() string {
	return "orders"
}
