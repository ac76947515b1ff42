package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/config"
	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/common/logger"
	"github.com/CarRentHub/CarRentHub/internal/common/middleware"
	"github.com/CarRentHub/CarRentHub/internal/common/tracing"
)

// Session 登录态。显式传参而不是塞进 Client，同一个 Client 可服务多个会话。
type Session struct {
	UserID   int64
	Username string
	Role     string
	Token    string
}

func (s Session) IsAdmin() bool {
	return s.Role == "admin"
}

// Client 租赁服务的 HTTP 客户端。
// 连接层失败（超时、拒绝连接、熔断）统一映射为 UNAVAILABLE；
// 业务错误原样还原为带错误码的 *errs.Error。
type Client struct {
	baseURL string
	httpc   *http.Client
	breaker *middleware.CircuitBreaker
	log     logger.Logger
}

func New(cfg config.ClientConfig, log logger.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		breaker: middleware.NewCircuitBreaker("rental-service",
			cfg.BreakerMaxFailures,
			time.Duration(cfg.BreakerResetSeconds)*time.Second),
		log: log,
	}
}

// do 发起一次请求并解码响应。
// 熔断器只统计连接层失败；带业务错误码的 4xx 不算服务不可用。
func (c *Client) do(ctx context.Context, sess Session, method, path string, query url.Values, body, out any) error {
	if c == nil || c.httpc == nil {
		return fmt.Errorf("client not initialized")
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	finish := tracing.StartClientSpan(ctx, req, method+" "+path)

	var remoteErr error
	callErr := c.breaker.Call(ctx, func() error {
		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			remoteErr = errs.DecodeHTTP(resp.StatusCode, raw)
			// 5xx 计入熔断失败
			if resp.StatusCode >= http.StatusInternalServerError {
				return remoteErr
			}
			return nil
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	})

	switch {
	case callErr == middleware.ErrCircuitOpen:
		err = errs.New(errs.CodeUnavailable, "service temporarily unavailable")
	case callErr != nil:
		if errs.CodeOf(callErr) == errs.CodeUnavailable {
			err = callErr
		} else {
			if c.log != nil {
				c.log.Warnf("%s %s: %v", method, path, callErr)
			}
			err = errs.New(errs.CodeUnavailable, "service unreachable")
		}
	case remoteErr != nil:
		err = remoteErr
	default:
		err = nil
	}

	finish(err)
	return err
}

func (c *Client) get(ctx context.Context, sess Session, path string, query url.Values, out any) error {
	return c.do(ctx, sess, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, sess Session, path string, query url.Values, body, out any) error {
	return c.do(ctx, sess, http.MethodPost, path, query, body, out)
}

// BreakerState 返回熔断器当前状态（CLI 展示用）。
func (c *Client) BreakerState() middleware.CircuitBreakerState {
	return c.breaker.GetState()
}
