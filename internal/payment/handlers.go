package payment

import (
	"context"
	"net/http"
	"strconv"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/go-chi/chi/v5"
)

// OrderOwner 查询订单归属的用户，用于台账的访问控制。
// 由 order 包的 Service 提供实现（payment 不反向依赖 order）。
type OrderOwner interface {
	OwnerOf(ctx context.Context, orderID int64) (int64, error)
}

// Handler 支付台账查询接口。支付动作（押金/尾款/罚金）属于订单生命周期，
// 由 order 包的 Handler 提供。
type Handler struct {
	Ledger *Ledger
	Orders OrderOwner
	Log    logger.Logger
}

func NewHandler(ledger *Ledger, orders OrderOwner, log logger.Logger) *Handler {
	return &Handler{Ledger: ledger, Orders: orders, Log: log}
}

// GetByOrder GET /api/payments/order/{orderId}
// 返回订单的全部支付记录，按支付时间升序。普通用户只能查自己订单的流水。
func (h *Handler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid order id"))
		return
	}
	if err := h.authorize(r, orderID); err != nil {
		errs.WriteHTTP(w, err)
		return
	}

	payments, err := h.Ledger.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.Log.Errorf("list payments by order %d: %v", orderID, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, payments)
}

// authorize 管理员不受限；普通用户必须是订单的归属人。
func (h *Handler) authorize(r *http.Request, orderID int64) error {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		return errs.New(errs.CodeUnauthorized, "missing authorization")
	}
	if ai.HasRole("admin") {
		return nil
	}
	uid, err := strconv.ParseInt(ai.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return errs.New(errs.CodeUnauthorized, "invalid subject")
	}
	owner, err := h.Orders.OwnerOf(r.Context(), orderID)
	if err != nil {
		return err
	}
	if owner != uid {
		return errs.New(errs.CodeForbidden, "order belongs to another user")
	}
	return nil
}

// ListAll GET /api/payments/all（管理端）
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	payments, total, err := h.Ledger.ListAll(r.Context(), offset, limit)
	if err != nil {
		h.Log.Errorf("list all payments: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"total":    total,
	})
}

func pageParams(r *http.Request) (offset, limit int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return (page - 1) * size, size
}
