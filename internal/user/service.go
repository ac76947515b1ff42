package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/auth"
	"github.com/CarRentHub/CarRentHub/internal/common/config"
	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"gorm.io/gorm"
)

type Service struct {
	repo    *Repo
	authCfg config.AuthConfig
}

func NewService(repo *Repo, authCfg config.AuthConfig) *Service {
	return &Service{repo: repo, authCfg: authCfg}
}

// RegisterInput 注册入参。
type RegisterInput struct {
	Username string
	Password string
	Nickname string
	Phone    string
	Email    string
}

// LoginResult 登录成功返回 token + 基本资料。
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone"`
}

// Register 注册新用户，角色固定为 user（管理员走数据库直接授权）。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "username required")
	}

	if _, err := s.repo.FindByUsername(ctx, in.Username); err == nil {
		return nil, errs.New(errs.CodeInvalidArgument, "username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, errs.New(errs.CodeInvalidArgument, "%v", err)
	}

	u := &User{
		Username:     in.Username,
		PasswordHash: hash,
		Nickname:     strings.TrimSpace(in.Nickname),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        strings.TrimSpace(in.Email),
		Role:         RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login 校验密码并签发 JWT。用户名不存在和密码错误返回同样的错误，避免枚举。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)

	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeUnauthorized, "invalid username or password")
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return nil, errs.New(errs.CodeUnauthorized, "invalid username or password")
	}

	ttl := time.Duration(s.authCfg.TokenTTLHours) * time.Hour
	token, expiresAt, err := auth.GenerateAccessToken(
		s.authCfg, strconv.FormatInt(u.ID, 10), []string{u.Role}, ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Phone:     u.Phone,
	}, nil
}

// ListUsers 管理端用户列表。
func (s *Service) ListUsers(ctx context.Context, offset, limit int) ([]User, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, offset, limit)
}

// GetProfile 查询用户资料。
func (s *Service) GetProfile(ctx context.Context, id int64) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeNotFound, "user not found")
	}
	return u, err
}
