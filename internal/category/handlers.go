package category

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

// Create POST /api/categories（管理端）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Category
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	req.ID = 0
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "name required"))
		return
	}
	if err := h.Repo.Create(r.Context(), &req); err != nil {
		h.Log.Errorf("create category: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, req)
}

// Get GET /api/categories/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid category id"))
		return
	}
	c, err := h.Repo.FindByID(r.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		errs.WriteHTTP(w, errs.New(errs.CodeNotFound, "category not found"))
		return
	}
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, c)
}

// List GET /api/categories
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Repo.List(r.Context())
	if err != nil {
		h.Log.Errorf("list categories: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, cats)
}
