package report

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"gorm.io/gorm"
)

// Handler 管理端概览接口。直接在只读查询里做状态计数，不落中间表。
type Handler struct {
	DB  *gorm.DB
	Log logger.Logger
}

func NewHandler(db *gorm.DB, log logger.Logger) *Handler {
	return &Handler{DB: db, Log: log}
}

// Dashboard GET /api/reports/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.buildDashboard(r.Context())
	if err != nil {
		h.Log.Errorf("build dashboard: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) buildDashboard(ctx context.Context) (*Dashboard, error) {
	if h == nil || h.DB == nil {
		return nil, fmt.Errorf("handler db is nil")
	}
	db := h.DB.WithContext(ctx)

	var d Dashboard

	count := func(table, where string, args ...any) (int64, error) {
		var n int64
		q := db.Table(table)
		if where != "" {
			q = q.Where(where, args...)
		}
		return n, q.Count(&n).Error
	}

	var err error
	if d.TotalVehicles, err = count("vehicles", ""); err != nil {
		return nil, err
	}
	if d.AvailableVehicles, err = count("vehicles", "status = ?", "available"); err != nil {
		return nil, err
	}
	if d.RentedVehicles, err = count("vehicles", "status = ?", "rented"); err != nil {
		return nil, err
	}
	if d.MaintenanceVehicles, err = count("vehicles", "status = ?", "maintenance"); err != nil {
		return nil, err
	}

	if d.TotalOrders, err = count("orders", ""); err != nil {
		return nil, err
	}
	if d.ActiveOrders, err = count("orders", "status = ?", "active"); err != nil {
		return nil, err
	}
	if d.ReturnedOrders, err = count("orders", "status = ?", "returned"); err != nil {
		return nil, err
	}
	if d.CompletedOrders, err = count("orders", "status = ?", "completed"); err != nil {
		return nil, err
	}
	if d.CancelledOrders, err = count("orders", "status = ?", "cancelled"); err != nil {
		return nil, err
	}

	if d.TotalUsers, err = count("users", ""); err != nil {
		return nil, err
	}
	return &d, nil
}
