package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/server"
)

type Handler struct {
	Svc *Service
	Log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Register POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	u, err := h.Svc.Register(r.Context(), RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		h.Log.Warnf("register %q: %v", req.Username, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, u)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.WriteHTTP(w, errs.New(errs.CodeInvalidArgument, "invalid request body"))
		return
	}
	res, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Log.Warnf("login %q: %v", req.Username, err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, res)
}

// ListAll GET /api/users?page=&page_size=（管理端）
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	users, total, err := h.Svc.ListUsers(r.Context(), (page-1)*size, size)
	if err != nil {
		h.Log.Errorf("list users: %v", err)
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
	})
}

// Me GET /api/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		errs.WriteHTTP(w, errs.New(errs.CodeUnauthorized, "missing authorization"))
		return
	}
	uid, err := strconv.ParseInt(ai.Subject, 10, 64)
	if err != nil || uid <= 0 {
		errs.WriteHTTP(w, errs.New(errs.CodeUnauthorized, "invalid subject"))
		return
	}
	u, err := h.Svc.GetProfile(r.Context(), uid)
	if err != nil {
		errs.WriteHTTP(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, u)
}
