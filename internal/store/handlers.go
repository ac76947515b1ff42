package store

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type Handler struct {
	Repo *Repo
	Log  logger.Logger
}

func NewHandler(repo *Repo, log logger.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

// Create POST /api/stores（管理端）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Store
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	req.ID = 0
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "name and city required"))
		return
	}
	if err := h.Repo.Create(r.Context(), &req); err != nil {
		h.Log.Errorf("create store: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, req)
}

// Update PUT /api/stores/{id}（管理端）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid store id"))
		return
	}
	s, err := h.Repo.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.WriteHTTP(w, errs.New(errs.CodeNotFound, "store not found"))
		return
	}
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}

	var req Store
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		s.Name = name
	}
	if city := strings.TrimSpace(req.City); city != "" {
		s.City = city
	}
	s.Address = strings.TrimSpace(req.Address)
	s.Phone = strings.TrimSpace(req.Phone)

	if err := h.Repo.Update(r.Context(), s); err != nil {
		h.Log.Errorf("update store %d: %v", id, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, s)
}

// Get GET /api/stores/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid store id"))
		return
	}
	s, err := h.Repo.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.WriteHTTP(w, errs.New(errs.CodeNotFound, "store not found"))
		return
	}
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, s)
}

// List GET /api/stores?city=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.Repo.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("city")))
	if err != nil {
		h.Log.Errorf("list stores: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, stores)
}
