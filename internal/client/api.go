package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/order"
	"github.com/CarRentHub/CarRentHub/internal/payment"
	"github.com/CarRentHub/CarRentHub/internal/pricing"
	"github.com/CarRentHub/CarRentHub/internal/report"
	"github.com/CarRentHub/CarRentHub/internal/user"
	"github.com/CarRentHub/CarRentHub/internal/vehicle"
	"github.com/shopspring/decimal"
)

// 服务端各接口的薄封装。请求/响应类型直接复用领域包的模型。

func (c *Client) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	body := map[string]string{
		"username": in.Username,
		"password": in.Password,
		"nickname": in.Nickname,
		"phone":    in.Phone,
		"email":    in.Email,
	}
	var u user.User
	if err := c.post(ctx, Session{}, "/api/auth/register", nil, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login 登录并返回可直接使用的会话。
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	body := map[string]string{"username": username, "password": password}
	var res user.LoginResult
	if err := c.post(ctx, Session{}, "/api/auth/login", nil, body, &res); err != nil {
		return Session{}, err
	}
	return Session{
		UserID:   res.UserID,
		Username: res.Username,
		Role:     res.Role,
		Token:    res.Token,
	}, nil
}

func (c *Client) SearchVehicles(ctx context.Context, sess Session, storeID int64, start, end time.Time) ([]vehicle.Vehicle, error) {
	q := url.Values{}
	q.Set("store_id", strconv.FormatInt(storeID, 10))
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	var vehicles []vehicle.Vehicle
	if err := c.get(ctx, sess, "/api/vehicles/available", q, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *Client) GetVehicle(ctx context.Context, sess Session, vehicleID int64) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	if err := c.get(ctx, sess, fmt.Sprintf("/api/vehicles/%d", vehicleID), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) GetQuote(ctx context.Context, sess Session, vehicleID int64, start, end time.Time) (pricing.Quote, error) {
	q := url.Values{}
	q.Set("vehicle_id", strconv.FormatInt(vehicleID, 10))
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	var quote pricing.Quote
	if err := c.get(ctx, sess, "/api/orders/quote", q, &quote); err != nil {
		return pricing.Quote{}, err
	}
	return quote, nil
}

type createOrderBody struct {
	VehicleID     int64     `json:"vehicleId"`
	PickupStoreID int64     `json:"pickupStoreId"`
	ReturnStoreID int64     `json:"returnStoreId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

func (c *Client) CreateOrder(ctx context.Context, sess Session, vehicleID, pickupStoreID, returnStoreID int64, start, end time.Time) (*order.Order, error) {
	var o order.Order
	err := c.post(ctx, sess, "/api/orders", nil, createOrderBody{
		VehicleID:     vehicleID,
		PickupStoreID: pickupStoreID,
		ReturnStoreID: returnStoreID,
		StartTime:     start,
		EndTime:       end,
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) GetOrder(ctx context.Context, sess Session, orderID int64) (*order.Order, error) {
	var o order.Order
	if err := c.get(ctx, sess, fmt.Sprintf("/api/orders/%d", orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ListMyOrders(ctx context.Context, sess Session) ([]order.Order, error) {
	var res struct {
		Orders []order.Order `json:"orders"`
		Total  int64         `json:"total"`
	}
	if err := c.get(ctx, sess, "/api/orders/my", nil, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}

func (c *Client) GetOrderPayments(ctx context.Context, sess Session, orderID int64) ([]payment.Payment, error) {
	var payments []payment.Payment
	if err := c.get(ctx, sess, fmt.Sprintf("/api/payments/order/%d", orderID), nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (c *Client) payDeposit(ctx context.Context, sess Session, orderID int64, payMethod string) (*payment.Payment, error) {
	q := url.Values{}
	q.Set("orderId", strconv.FormatInt(orderID, 10))
	q.Set("payMethod", payMethod)
	var p payment.Payment
	if err := c.post(ctx, sess, "/api/payments/deposit", q, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) payFinal(ctx context.Context, sess Session, orderID int64, amount decimal.Decimal, payMethod string) (*payment.Payment, error) {
	q := url.Values{}
	q.Set("orderId", strconv.FormatInt(orderID, 10))
	q.Set("amount", amount.String())
	q.Set("payMethod", payMethod)
	var p payment.Payment
	if err := c.post(ctx, sess, "/api/payments/final", q, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type returnBody struct {
	ReturnStoreID int64 `json:"returnStoreId"`
}

func (c *Client) returnVehicle(ctx context.Context, sess Session, orderID, returnStoreID int64) (*order.Order, error) {
	var o order.Order
	err := c.post(ctx, sess, fmt.Sprintf("/api/orders/%d/return", orderID), nil,
		returnBody{ReturnStoreID: returnStoreID}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) cancelOrder(ctx context.Context, sess Session, orderID int64) (*order.Order, error) {
	var o order.Order
	err := c.post(ctx, sess, fmt.Sprintf("/api/orders/%d/cancel", orderID), nil,
		struct{}{}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetDashboard 管理端概览。载荷按原样展示，客户端不做二次计算。
func (c *Client) GetDashboard(ctx context.Context, sess Session) (*report.Dashboard, error) {
	var d report.Dashboard
	if err := c.get(ctx, sess, "/api/reports/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
