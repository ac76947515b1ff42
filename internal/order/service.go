package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/payment"
	"github.com/CarRentHub/CarRentHub/internal/pricing"
	"github.com/CarRentHub/CarRentHub/internal/store"
	"github.com/CarRentHub/CarRentHub/internal/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service 封装订单生命周期的核心用例（不依赖 HTTP），便于复用和测试。
// 状态流转前先过状态机守卫，守卫依据支付台账的当前视图。
type Service struct {
	repo     *Repo
	vehicles *vehicle.Repo
	stores   *store.Repo
	ledger   *payment.Ledger
}

func NewService(repo *Repo, vehicles *vehicle.Repo, stores *store.Repo, ledger *payment.Ledger) *Service {
	return &Service{repo: repo, vehicles: vehicles, stores: stores, ledger: ledger}
}

// CreateOrderInput 创建订单的入参。
type CreateOrderInput struct {
	UserID        int64
	VehicleID     int64
	PickupStoreID int64
	ReturnStoreID int64
	StartTime     time.Time
	EndTime       time.Time
}

// ListOrdersFilter 查询条件。
type ListOrdersFilter struct {
	UserID int64
	Status Status
	Offset int
	Limit  int
}

// CreateOrder 创建订单：
// 1. 校验租期与车辆状态
// 2. 检查同车辆时间段冲突
// 3. 计算订单总金额（日租金 × 计费天数）
// 4. 锁定车辆（available -> rented）
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if in.UserID <= 0 {
		return nil, errs.New(errs.CodeInvalidArgument, "user id required")
	}
	if in.StartTime.Before(time.Now().Add(-time.Minute)) {
		return nil, errs.New(errs.CodeInvalidInterval, "start time must not be in the past")
	}

	v, err := s.vehicles.FindByID(ctx, in.VehicleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeNotFound, "vehicle not found")
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.stores.FindByID(ctx, in.PickupStoreID); err != nil {
		return nil, storeLookupError(err, "pickup store")
	}
	if _, err := s.stores.FindByID(ctx, in.ReturnStoreID); err != nil {
		return nil, storeLookupError(err, "return store")
	}

	if v.Status != vehicle.StatusAvailable {
		return nil, errs.New(errs.CodeVehicleUnavailable, "vehicle is not available (%s)", v.Status.Label())
	}

	// 报价计算顺带校验租期合法性
	quote, err := pricing.ComputeQuote(v.DailyRate, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.repo.CountConflicting(ctx, in.VehicleID, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, errs.New(errs.CodeVehicleUnavailable, "vehicle already reserved in this interval")
	}

	o := &Order{
		OrderNo:       generateOrderNo(),
		UserID:        in.UserID,
		VehicleID:     in.VehicleID,
		PickupStoreID: in.PickupStoreID,
		ReturnStoreID: in.ReturnStoreID,
		Status:        StatusActive,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		TotalAmount:   quote.Total,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	if err := s.vehicles.UpdateStatus(ctx, v.ID, vehicle.StatusRented); err != nil {
		return nil, err
	}
	return o, nil
}

// Quote 下单前的展示报价：计费天数、押金、总额。
func (s *Service) Quote(ctx context.Context, vehicleID int64, start, end time.Time) (pricing.Quote, error) {
	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pricing.Quote{}, errs.New(errs.CodeNotFound, "vehicle not found")
	}
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.ComputeQuote(v.DailyRate, start, end)
}

// PayDeposit 支付押金。金额由服务端按日租金 × 3 计算，客户端不可指定。
func (s *Service) PayDeposit(ctx context.Context, orderID int64, payMethod string) (*payment.Payment, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lv, err := s.ledgerView(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := GuardPayDeposit(o, lv); err != nil {
		return nil, err
	}

	v, err := s.vehicles.FindByID(ctx, o.VehicleID)
	if err != nil {
		return nil, err
	}
	deposit := v.DailyRate.Mul(decimal.NewFromInt(3))
	return s.ledger.Record(ctx, o.ID, payment.TypeDeposit, deposit, payMethod)
}

// PayFinal 支付尾款。押金是前置条件；已还车订单结清后转为完成。
func (s *Service) PayFinal(ctx context.Context, orderID int64, amount decimal.Decimal, payMethod string) (*payment.Payment, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lv, err := s.ledgerView(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := GuardPayFinal(o, lv); err != nil {
		return nil, err
	}
	// 尾款必须与订单总额一致，多付少付都拒绝
	if !amount.Equal(o.TotalAmount) {
		return nil, errs.New(errs.CodeInvalidAmount, "final amount %s does not match order total %s", amount, o.TotalAmount)
	}

	p, err := s.ledger.Record(ctx, o.ID, payment.TypeFinal, amount, payMethod)
	if err != nil {
		return nil, err
	}

	if o.Status == StatusReturned {
		if err := ApplyTransition(o, StatusCompleted, time.Now()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// PayPenalty 管理端补录罚金（车损等场景）。超期罚金由还车流程自动落账。
func (s *Service) PayPenalty(ctx context.Context, orderID int64, amount decimal.Decimal, payMethod string) (*payment.Payment, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Record(ctx, o.ID, payment.TypePenalty, amount, payMethod)
}

// ReturnVehicle 还车：
// 1. 记录实际还车时间
// 2. 超期则按日租金 × 1.5 × 超期天数（向上取整）落一笔罚金
// 3. 尾款已结清直接完成，否则进入已还车待结清
// 4. 恢复车辆为空闲；异地还车时把车辆划转到实际还车门店
func (s *Service) ReturnVehicle(ctx context.Context, orderID, returnStoreID int64) (*Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lv, err := s.ledgerView(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := GuardReturn(o, lv); err != nil {
		return nil, err
	}

	rs, err := s.stores.FindByID(ctx, returnStoreID)
	if err != nil {
		return nil, storeLookupError(err, "return store")
	}

	v, err := s.vehicles.FindByID(ctx, o.VehicleID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o.ActualReturnTime = &now
	o.ReturnStoreID = rs.ID

	if penalty := pricing.OverduePenalty(v.DailyRate, o.EndTime, now); penalty.IsPositive() {
		if _, err := s.ledger.Record(ctx, o.ID, payment.TypePenalty, penalty, ""); err != nil {
			return nil, err
		}
	}

	if err := ApplyTransition(o, returnTarget(lv), now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err := s.vehicles.UpdateStatus(ctx, v.ID, vehicle.StatusAvailable); err != nil {
		return nil, err
	}
	if v.StoreID != rs.ID {
		if err := s.vehicles.UpdateStore(ctx, v.ID, rs.ID); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// CancelOrder 取消订单并释放车辆。还车之前随时可取消；终态订单拒绝。
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := GuardCancel(o); err != nil {
		return nil, err
	}

	if err := ApplyTransition(o, StatusCancelled, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.vehicles.UpdateStatus(ctx, o.VehicleID, vehicle.StatusAvailable); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.getOrder(ctx, id)
}

// OwnerOf 返回订单归属的用户 ID，供支付台账查询做访问控制。
func (s *Service) OwnerOf(ctx context.Context, orderID int64) (int64, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return o.UserID, nil
}

func (s *Service) GetByOrderNo(ctx context.Context, orderNo string) (*Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "order_no required")
	}
	o, err := s.repo.GetByOrderNo(ctx, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeNotFound, "order not found")
	}
	return o, err
}

func (s *Service) ListOrders(ctx context.Context, f ListOrdersFilter) ([]Order, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, f.UserID, f.Status, f.Offset, f.Limit)
}

func (s *Service) getOrder(ctx context.Context, id int64) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	o, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeNotFound, "order not found")
	}
	return o, err
}

// ledgerView 拉取守卫所需的台账快照。
func (s *Service) ledgerView(ctx context.Context, orderID int64) (LedgerView, error) {
	hasDeposit, err := s.ledger.HasPayment(ctx, orderID, payment.TypeDeposit)
	if err != nil {
		return LedgerView{}, err
	}
	hasFinal, err := s.ledger.HasPayment(ctx, orderID, payment.TypeFinal)
	if err != nil {
		return LedgerView{}, err
	}
	return LedgerView{HasDeposit: hasDeposit, HasFinal: hasFinal}, nil
}

func storeLookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.New(errs.CodeNotFound, "%s not found", what)
	}
	return err
}

// generateOrderNo 生成订单流水号，毫秒时间戳 + UUID 前 8 位。
func generateOrderNo() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(),
		strings.ToUpper(uuid.NewString()[:8]))
}
