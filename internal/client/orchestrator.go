package client

import (
	"context"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/order"
	"github.com/CarRentHub/CarRentHub/internal/payment"
	"github.com/CarRentHub/CarRentHub/internal/pricing"
	"github.com/shopspring/decimal"
)

// OrderView 订单的本地投影：订单本体 + 支付流水。
// 每次变更操作成功后都整体刷新，不做增量修补。
type OrderView struct {
	Order    order.Order       `json:"order"`
	Payments []payment.Payment `json:"payments"`
}

// LedgerView 从支付流水推导状态机守卫所需的台账视图。
func (v *OrderView) LedgerView() order.LedgerView {
	var lv order.LedgerView
	for _, p := range v.Payments {
		switch p.PayType {
		case payment.TypeDeposit:
			lv.HasDeposit = true
		case payment.TypeFinal:
			lv.HasFinal = true
		}
	}
	return lv
}

// TotalPaid 已支付总额。
func (v *OrderView) TotalPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range v.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Orchestrator 订单生命周期的客户端编排：
// - 变更前用本地投影跑一遍状态机守卫，快速失败不打扰服务端
// - 同一订单的变更操作串行化（本地单飞锁）
// - 服务端是最终仲裁者，本地判定通过后仍可能被远端拒绝
type Orchestrator struct {
	api      *Client
	inflight *keyedMutex
	log      logger.Logger
}

func NewOrchestrator(api *Client, log logger.Logger) *Orchestrator {
	return &Orchestrator{api: api, inflight: newKeyedMutex(), log: log}
}

// API 暴露底层客户端（查询类操作不需要编排）。
func (o *Orchestrator) API() *Client {
	return o.api
}

// Refresh 拉取订单最新投影。
func (o *Orchestrator) Refresh(ctx context.Context, sess Session, orderID int64) (*OrderView, error) {
	ord, err := o.api.GetOrder(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := o.api.GetOrderPayments(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: *ord, Payments: payments}, nil
}

// RentInput 租车入参。
type RentInput struct {
	VehicleID     int64
	PickupStoreID int64
	ReturnStoreID int64
	StartTime     time.Time
	EndTime       time.Time
}

// RentResult 下单结果：报价展示 + 初始投影。
type RentResult struct {
	Quote pricing.Quote `json:"quote"`
	View  OrderView     `json:"view"`
}

// Rent 租车流程：先拿报价给用户确认展示，再创建订单。
// 报价在本地只用于展示，订单金额以服务端落库为准。
func (o *Orchestrator) Rent(ctx context.Context, sess Session, in RentInput) (*RentResult, error) {
	quote, err := o.api.GetQuote(ctx, sess, in.VehicleID, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	ord, err := o.api.CreateOrder(ctx, sess, in.VehicleID, in.PickupStoreID, in.ReturnStoreID, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	return &RentResult{
		Quote: quote,
		View:  OrderView{Order: *ord},
	}, nil
}

// mutate 变更操作的公共骨架：单飞锁 -> 刷新投影 -> 本地守卫 -> 远端调用 -> 刷新投影。
func (o *Orchestrator) mutate(ctx context.Context, sess Session, orderID int64,
	guard func(*OrderView) error, call func(*OrderView) error) (*OrderView, error) {

	if !o.inflight.TryLock(orderID) {
		return nil, ErrMutationInFlight
	}
	defer o.inflight.Unlock(orderID)

	view, err := o.Refresh(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if err := guard(view); err != nil {
		return nil, err
	}
	if err := call(view); err != nil {
		return nil, err
	}
	return o.Refresh(ctx, sess, orderID)
}

// PayDeposit 支付押金。
func (o *Orchestrator) PayDeposit(ctx context.Context, sess Session, orderID int64, payMethod string) (*OrderView, error) {
	return o.mutate(ctx, sess, orderID,
		func(v *OrderView) error {
			return order.GuardPayDeposit(&v.Order, v.LedgerView())
		},
		func(v *OrderView) error {
			_, err := o.api.payDeposit(ctx, sess, orderID, payMethod)
			return err
		})
}

// PayFinal 支付尾款（金额默认取订单总额）。
func (o *Orchestrator) PayFinal(ctx context.Context, sess Session, orderID int64, payMethod string) (*OrderView, error) {
	return o.mutate(ctx, sess, orderID,
		func(v *OrderView) error {
			return order.GuardPayFinal(&v.Order, v.LedgerView())
		},
		func(v *OrderView) error {
			_, err := o.api.payFinal(ctx, sess, orderID, v.Order.TotalAmount, payMethod)
			return err
		})
}

// EstimatePenalty 还车前的超期罚金预估，仅用于展示。
// 实际罚金以服务端按实际还车时间落账为准。
func (o *Orchestrator) EstimatePenalty(view *OrderView, dailyRate decimal.Decimal, now time.Time) decimal.Decimal {
	if view == nil {
		return decimal.Zero
	}
	return pricing.OverduePenalty(dailyRate, view.Order.EndTime, now)
}

// Return 还车。
func (o *Orchestrator) Return(ctx context.Context, sess Session, orderID, returnStoreID int64) (*OrderView, error) {
	return o.mutate(ctx, sess, orderID,
		func(v *OrderView) error {
			return order.GuardReturn(&v.Order, v.LedgerView())
		},
		func(v *OrderView) error {
			_, err := o.api.returnVehicle(ctx, sess, orderID, returnStoreID)
			return err
		})
}

// Cancel 取消订单。
func (o *Orchestrator) Cancel(ctx context.Context, sess Session, orderID int64) (*OrderView, error) {
	return o.mutate(ctx, sess, orderID,
		func(v *OrderView) error {
			return order.GuardCancel(&v.Order)
		},
		func(v *OrderView) error {
			_, err := o.api.cancelOrder(ctx, sess, orderID)
			return err
		})
}
