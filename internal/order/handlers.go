package order

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Handler 订单与支付相关的 HTTP 入口。
// 支付接口会改变订单状态，所以和订单生命周期放在一起。
type Handler struct {
	Svc *Service
	Log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

const roleAdmin = "admin"

// currentUser 解析 ctx 中的鉴权信息，返回用户 ID 与是否管理员。
func currentUser(r *http.Request) (int64, bool, error) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		return 0, false, errs.New(errs.CodeUnauthorized, "missing authorization")
	}
	uid, err := strconv.ParseInt(ai.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return 0, false, errs.New(errs.CodeUnauthorized, "invalid subject")
	}
	return uid, ai.HasRole(roleAdmin), nil
}

// canAccess 普通用户只能操作自己的订单，管理员不受限。
func canAccess(o *Order, uid int64, admin bool) error {
	if admin || o.UserID == uid {
		return nil
	}
	return errs.New(errs.CodeForbidden, "order belongs to another user")
}

type createRequest struct {
	VehicleID     int64     `json:"vehicleId"`
	PickupStoreID int64     `json:"pickupStoreId"`
	ReturnStoreID int64     `json:"returnStoreId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

// Create POST /api/orders
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}

	o, err := h.Svc.CreateOrder(r.Context(), CreateOrderInput{
		UserID:        uid,
		VehicleID:     req.VehicleID,
		PickupStoreID: req.PickupStoreID,
		ReturnStoreID: req.ReturnStoreID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		h.Log.Warnf("create order for user %d: %v", uid, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// Quote GET /api/orders/quote?vehicle_id=&start=&end=
// 下单前展示计费天数、押金、总额。
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vehicleID, _ := strconv.ParseInt(q.Get("vehicle_id"), 10, 64)
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid start time"))
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid end time"))
		return
	}

	quote, err := h.Svc.Quote(r.Context(), vehicleID, start, end)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, quote)
}

// Get GET /api/orders/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid, admin, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid order id"))
		return
	}
	o, err := h.Svc.GetOrder(r.Context(), id)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	if err := canAccess(o, uid, admin); err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// GetByNo GET /api/orders/no/{orderNo}
func (h *Handler) GetByNo(w http.ResponseWriter, r *http.Request) {
	uid, admin, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	o, err := h.Svc.GetByOrderNo(r.Context(), chi.URLParam(r, "orderNo"))
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	if err := canAccess(o, uid, admin); err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// ListMine GET /api/orders/my?status=&page=&page_size=
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	uid, _, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	h.list(w, r, uid)
}

// ListAll GET /api/orders?user_id=&status=&page=&page_size=（管理端）
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	h.list(w, r, userID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, userID int64) {
	q := r.URL.Query()
	status := Status(q.Get("status"))
	if status != "" && !status.Valid() {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "unknown status %q", status))
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}

	orders, total, err := h.Svc.ListOrders(r.Context(), ListOrdersFilter{
		UserID: userID,
		Status: status,
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		h.Log.Errorf("list orders: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
	})
}

type returnRequest struct {
	ReturnStoreID int64 `json:"returnStoreId"`
}

// Return POST /api/orders/{id}/return
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	uid, admin, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid order id"))
		return
	}
	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}

	o, err := h.Svc.GetOrder(r.Context(), id)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	if err := canAccess(o, uid, admin); err != nil {
		errs.WriteHTTP(w, err)
		return
	}

	o, err = h.Svc.ReturnVehicle(r.Context(), id, req.ReturnStoreID)
	if err != nil {
		h.Log.Warnf("return order %d: %v", id, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// Cancel POST /api/orders/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, admin, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid order id"))
		return
	}

	o, err := h.Svc.GetOrder(r.Context(), id)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	if err := canAccess(o, uid, admin); err != nil {
		errs.WriteHTTP(w, err)
		return
	}

	o, err = h.Svc.CancelOrder(r.Context(), id)
	if err != nil {
		h.Log.Warnf("cancel order %d: %v", id, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, o)
}

// payTarget 解析支付接口共享的 orderId 参数并做归属校验。
func (h *Handler) payTarget(w http.ResponseWriter, r *http.Request) (*Order, bool) {
	uid, admin, err := currentUser(r)
	if err != nil {
		errs.WriteHTTP(w, err)
		return nil, false
	}
	orderID, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid orderId"))
		return nil, false
	}
	o, err := h.Svc.GetOrder(r.Context(), orderID)
	if err != nil {
		errs.WriteHTTP(w, err)
		return nil, false
	}
	if err := canAccess(o, uid, admin); err != nil {
		errs.WriteHTTP(w, err)
		return nil, false
	}
	return o, true
}

// PayDeposit POST /api/payments/deposit?orderId=&payMethod=
// 押金金额由服务端计算（日租金 × 3），不接受客户端金额。
func (h *Handler) PayDeposit(w http.ResponseWriter, r *http.Request) {
	o, ok := h.payTarget(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.PayDeposit(r.Context(), o.ID, r.URL.Query().Get("payMethod"))
	if err != nil {
		h.Log.Warnf("pay deposit order %d: %v", o.ID, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

// PayFinal POST /api/payments/final?orderId=&amount=&payMethod=
func (h *Handler) PayFinal(w http.ResponseWriter, r *http.Request) {
	o, ok := h.payTarget(w, r)
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidAmount, "invalid amount"))
		return
	}
	p, err := h.Svc.PayFinal(r.Context(), o.ID, amount, r.URL.Query().Get("payMethod"))
	if err != nil {
		h.Log.Warnf("pay final order %d: %v", o.ID, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}

// PayPenalty POST /api/payments/penalty?orderId=&amount=&payMethod=（管理端补录）
func (h *Handler) PayPenalty(w http.ResponseWriter, r *http.Request) {
	o, ok := h.payTarget(w, r)
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidAmount, "invalid amount"))
		return
	}
	p, err := h.Svc.PayPenalty(r.Context(), o.ID, amount, r.URL.Query().Get("payMethod"))
	if err != nil {
		h.Log.Warnf("pay penalty order %d: %v", o.ID, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, p)
}
