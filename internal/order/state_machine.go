package order

import (
	"fmt"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
)

// AllowTransition 定义订单状态机的允许流转关系。
//
//	active    -> returned / completed / cancelled
//	returned  -> completed（还车后补交尾款）
//	completed / cancelled 为终态
var AllowTransition = map[Status][]Status{
	StatusActive:    {StatusReturned, StatusCompleted, StatusCancelled},
	StatusReturned:  {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对订单应用状态变更，并维护关键时间字段。
// 仅做状态合法性校验；支付相关的前置条件由 Guard* 系列负责。
func ApplyTransition(o *Order, to Status, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	from := o.Status
	if !CanTransition(from, to) {
		return errs.New(errs.CodeInvalidState, "illegal order status transition: %s -> %s", from, to)
	}

	o.Status = to

	switch to {
	case StatusCompleted:
		if o.CompletedAt == nil {
			t := now
			o.CompletedAt = &t
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			t := now
			o.CancelledAt = &t
		}
	}
	return nil
}

// LedgerView 状态机守卫所需的最小支付台账视图。
// 押金是尾款和还车的前置：没有押金就不能结清、也不能还车。
type LedgerView struct {
	HasDeposit bool
	HasFinal   bool
}

// GuardPayDeposit 支付押金的前置检查。
func GuardPayDeposit(o *Order, lv LedgerView) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if o.Status != StatusActive {
		return errs.New(errs.CodeInvalidState, "cannot pay deposit on %s order", o.Status)
	}
	if lv.HasDeposit {
		return errs.New(errs.CodeDuplicatePayment, "deposit already paid for order %d", o.ID)
	}
	return nil
}

// GuardPayFinal 支付尾款的前置检查。
// 进行中或已还车的订单都允许结清尾款；已还车订单结清后转为完成。
func GuardPayFinal(o *Order, lv LedgerView) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if o.Status != StatusActive && o.Status != StatusReturned {
		return errs.New(errs.CodeInvalidState, "cannot pay final on %s order", o.Status)
	}
	if !lv.HasDeposit {
		return errs.New(errs.CodePreconditionNotMet, "deposit required")
	}
	if lv.HasFinal {
		return errs.New(errs.CodeDuplicatePayment, "final payment already recorded for order %d", o.ID)
	}
	return nil
}

// GuardReturn 还车的前置检查。
func GuardReturn(o *Order, lv LedgerView) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if o.Status != StatusActive {
		return errs.New(errs.CodeInvalidState, "cannot return vehicle on %s order", o.Status)
	}
	if !lv.HasDeposit {
		return errs.New(errs.CodePreconditionNotMet, "deposit required")
	}
	return nil
}

// GuardCancel 取消订单的前置检查：还车之前随时可取消。
func GuardCancel(o *Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if o.Status != StatusActive {
		return errs.New(errs.CodeInvalidState, "cannot cancel %s order", o.Status)
	}
	return nil
}

// returnTarget 还车后的落点：尾款已结清直接完成，否则进入已还车待结清。
func returnTarget(lv LedgerView) Status {
	if lv.HasFinal {
		return StatusCompleted
	}
	return StatusReturned
}
