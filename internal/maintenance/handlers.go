package maintenance

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Handler 维保管理接口，整组挂在管理端路由下。
type Handler struct {
	Svc *Service
	Log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

type openRequest struct {
	VehicleID   int64           `json:"vehicleId"`
	Type        string          `json:"type"`
	Cost        decimal.Decimal `json:"cost"`
	Description string          `json:"description"`
}

// Open POST /api/maintenance
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	rec, err := h.Svc.Open(r.Context(), OpenInput{
		VehicleID:   req.VehicleID,
		Type:        req.Type,
		Cost:        req.Cost,
		Description: req.Description,
	})
	if err != nil {
		h.Log.Warnf("open maintenance for vehicle %d: %v", req.VehicleID, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, rec)
}

type closeRequest struct {
	Cost decimal.Decimal `json:"cost"`
}

// Close POST /api/maintenance/{id}/close
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid record id"))
		return
	}
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	rec, err := h.Svc.Close(r.Context(), id, req.Cost)
	if err != nil {
		h.Log.Warnf("close maintenance %d: %v", id, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, rec)
}

// History GET /api/maintenance/vehicle/{vehicleId}
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := strconv.ParseInt(chi.URLParam(r, "vehicleId"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid vehicle id"))
		return
	}
	recs, err := h.Svc.History(r.Context(), vehicleID)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, recs)
}
