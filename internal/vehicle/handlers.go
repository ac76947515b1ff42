package vehicle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Handler struct {
	Repo *Repo
	Log  logger.Logger
}

func NewHandler(repo *Repo, log logger.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

type upsertRequest struct {
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	PlateNumber string          `json:"plateNumber"`
	CategoryID  int64           `json:"categoryId"`
	StoreID     int64           `json:"storeId"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
}

// Create POST /api/vehicles（管理端）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.PlateNumber) == "" {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "plate_number required"))
		return
	}
	if !req.DailyRate.IsPositive() {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidAmount, "daily rate must be positive"))
		return
	}

	v := &Vehicle{
		Brand:       strings.TrimSpace(req.Brand),
		Model:       strings.TrimSpace(req.Model),
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		CategoryID:  req.CategoryID,
		StoreID:     req.StoreID,
		Status:      StatusAvailable,
		DailyRate:   req.DailyRate,
	}
	if err := h.Repo.Create(r.Context(), v); err != nil {
		h.Log.Errorf("create vehicle: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, v)
}

// Update PUT /api/vehicles/{id}（管理端：改价、换店、归类）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid vehicle id"))
		return
	}
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	if !req.DailyRate.IsPositive() {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidAmount, "daily rate must be positive"))
		return
	}

	v, err := h.Repo.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.WriteHTTP(w, errs.New(errs.CodeNotFound, "vehicle not found"))
		return
	}
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}

	v.Brand = strings.TrimSpace(req.Brand)
	v.Model = strings.TrimSpace(req.Model)
	if p := strings.TrimSpace(req.PlateNumber); p != "" {
		v.PlateNumber = p
	}
	if req.CategoryID > 0 {
		v.CategoryID = req.CategoryID
	}
	if req.StoreID > 0 {
		v.StoreID = req.StoreID
	}
	v.DailyRate = req.DailyRate

	if err := h.Repo.Update(r.Context(), v); err != nil {
		h.Log.Errorf("update vehicle %d: %v", id, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, v)
}

// Get GET /api/vehicles/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid vehicle id"))
		return
	}
	v, err := h.Repo.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.WriteHTTP(w, errs.New(errs.CodeNotFound, "vehicle not found"))
		return
	}
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, v)
}

// List GET /api/vehicles?store_id=&category_id=&status=&page=&page_size=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	storeID, _ := strconv.ParseInt(q.Get("store_id"), 10, 64)
	categoryID, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)
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

	vehicles, total, err := h.Repo.List(r.Context(), storeID, categoryID, status, (page-1)*size, size)
	if err != nil {
		h.Log.Errorf("list vehicles: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"total":    total,
	})
}

// SearchAvailable GET /api/vehicles/available?store_id=&start=&end=
// 用户端核心查询：门店 + 时间段内可租车辆。
func (h *Handler) SearchAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	storeID, _ := strconv.ParseInt(q.Get("store_id"), 10, 64)

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
	if !end.After(start) {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidInterval, "end time must be after start time"))
		return
	}

	vehicles, err := h.Repo.SearchAvailable(r.Context(), storeID, start, end, blockingOrderStatuses)
	if err != nil {
		h.Log.Errorf("search available vehicles: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, vehicles)
}

// blockingOrderStatuses 视为占用车辆的订单状态集合，与 order 包的非终态保持一致。
// 字面量写死而不引用 order 包，避免 order -> vehicle -> order 的包循环。
// returned 订单车辆已回库，不再阻塞新时段。
var blockingOrderStatuses = []string{"active"}

// SetStatus PUT /api/vehicles/{id}/status（管理端：下架/恢复等）
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid vehicle id"))
		return
	}
	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid status"))
		return
	}

	v, err := h.Repo.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.WriteHTTP(w, errs.New(errs.CodeNotFound, "vehicle not found"))
		return
	}
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	// 已租车辆的状态由订单流程管理，不允许管理端直接改
	if v.Status == StatusRented {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidState, "vehicle is rented, status is managed by the order lifecycle"))
		return
	}

	if err := h.Repo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		h.Log.Errorf("update vehicle %d status: %v", id, err)
		errs.WriteHTTP(w, err)
		return
	}
	v.Status = req.Status
	server.WriteJSON(w, http.StatusOK, v)
}
