package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type 支付类型（持久化为字符串，与历史数据保持同名）。
type Type string

const (
	TypeDeposit Type = "Deposit" // 押金（下单后、还车前必须支付）
	TypeFinal   Type = "Final"   // 尾款（结清租金）
	TypePenalty Type = "Penalty" // 罚金（超期等，可能多笔）
)

// singleUse 每个订单只允许出现一次的支付类型。
var singleUse = map[Type]bool{
	TypeDeposit: true,
	TypeFinal:   true,
}

// Valid 判断是否是已知的支付类型。
func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeFinal, TypePenalty:
		return true
	}
	return false
}

// SingleUse 判断该类型在单个订单上是否只允许一笔。
func (t Type) SingleUse() bool {
	return singleUse[t]
}

// Payment 支付记录 GORM 模型。台账只追加：记录一经写入不修改不删除，
// 冲正通过新增补偿记录完成（由上游处理）。
type Payment struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"index;not null" json:"orderId"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PayMethod string          `gorm:"size:20" json:"payMethod"` // Alipay / WeChat / Card
	PayType   Type            `gorm:"type:varchar(20);index;not null" json:"payType"`
	PayTime   time.Time       `gorm:"index;not null" json:"payTime"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 固定表名 payments。
func (Payment) TableName() string {
	return "payments"
}
