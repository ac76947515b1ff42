package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger 订单支付台账。押金和尾款每单各一笔，罚金可多笔。
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) withCtx(ctx context.Context) *gorm.DB {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.WithContext(ctx)
}

// Record 追加一笔支付记录。
// 写入前校验：金额必须为正；单次性类型（押金/尾款）在同一订单上不允许重复。
func (l *Ledger) Record(ctx context.Context, orderID int64, payType Type, amount decimal.Decimal, payMethod string) (*Payment, error) {
	db := l.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("ledger db is nil")
	}
	if !payType.Valid() {
		return nil, errs.New(errs.CodeInvalidArgument, "unknown pay type %q", payType)
	}
	if !amount.IsPositive() {
		return nil, errs.New(errs.CodeInvalidAmount, "payment amount must be positive, got %s", amount)
	}

	p := &Payment{
		OrderID:   orderID,
		Amount:    amount,
		PayMethod: payMethod,
		PayType:   payType,
		PayTime:   time.Now(),
	}

	// 查重和写入放在同一事务里，避免并发下押金/尾款写成两笔。
	err := db.Transaction(func(tx *gorm.DB) error {
		if payType.SingleUse() {
			var count int64
			if err := tx.Model(&Payment{}).
				Where("order_id = ? AND pay_type = ?", orderID, payType).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return errs.New(errs.CodeDuplicatePayment, "%s payment already recorded for order %d", payType, orderID)
			}
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// HasPayment 判断订单是否已有某类型的支付记录。
func (l *Ledger) HasPayment(ctx context.Context, orderID int64, payType Type) (bool, error) {
	db := l.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("ledger db is nil")
	}
	var count int64
	if err := db.Model(&Payment{}).
		Where("order_id = ? AND pay_type = ?", orderID, payType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByOrder 订单的全部支付记录，按支付时间升序。
func (l *Ledger) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	db := l.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("ledger db is nil")
	}
	var payments []Payment
	if err := db.Where("order_id = ?", orderID).
		Order("pay_time ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ListAll 全部支付记录（管理端），按支付时间降序 + 分页。
func (l *Ledger) ListAll(ctx context.Context, offset, limit int) ([]Payment, int64, error) {
	db := l.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("ledger db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := db.Model(&Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []Payment
	if err := db.Order("pay_time DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
