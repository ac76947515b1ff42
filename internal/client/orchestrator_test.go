package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/config"
	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/order"
	"github.com/CarRentHub/CarRentHub/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer 最小化的远端模拟：固定订单 + 可变支付流水。
type fakeServer struct {
	mu       sync.Mutex
	order    order.Order
	payments []payment.Payment
	payCalls atomic.Int64
	delay    time.Duration
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders/1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.order)
	})
	mux.HandleFunc("/api/payments/order/1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.payments)
	})
	mux.HandleFunc("/api/payments/deposit", func(w http.ResponseWriter, r *http.Request) {
		f.payCalls.Add(1)
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		f.mu.Lock()
		p := payment.Payment{ID: 1, OrderID: 1, PayType: payment.TypeDeposit, Amount: decimal.NewFromInt(300)}
		f.payments = append(f.payments, p)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("/api/payments/final", func(w http.ResponseWriter, r *http.Request) {
		f.payCalls.Add(1)
		f.mu.Lock()
		p := payment.Payment{ID: 2, OrderID: 1, PayType: payment.TypeFinal, Amount: f.order.TotalAmount}
		f.payments = append(f.payments, p)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(p)
	})
	return mux
}

func newTestOrchestrator(t *testing.T, f *fakeServer) (*Orchestrator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	api := New(config.ClientConfig{
		BaseURL:             srv.URL,
		TimeoutSeconds:      5,
		BreakerMaxFailures:  3,
		BreakerResetSeconds: 1,
	}, nil)
	return NewOrchestrator(api, nil), srv
}

func activeOrder() order.Order {
	return order.Order{
		ID:          1,
		OrderNo:     "ORD-1-TEST",
		UserID:      42,
		VehicleID:   9,
		Status:      order.StatusActive,
		StartTime:   time.Now(),
		EndTime:     time.Now().Add(48 * time.Hour),
		TotalAmount: decimal.NewFromInt(200),
	}
}

func TestPayDepositRefreshesProjection(t *testing.T) {
	f := &fakeServer{order: activeOrder()}
	orch, _ := newTestOrchestrator(t, f)

	view, err := orch.PayDeposit(context.Background(), Session{UserID: 42}, 1, "alipay")
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.True(t, view.LedgerView().HasDeposit)
	assert.Equal(t, int64(1), f.payCalls.Load())
	assert.True(t, view.TotalPaid().Equal(decimal.NewFromInt(300)))
}

func TestPayDepositLocalGuardBlocksDuplicate(t *testing.T) {
	f := &fakeServer{
		order: activeOrder(),
		payments: []payment.Payment{
			{ID: 1, OrderID: 1, PayType: payment.TypeDeposit, Amount: decimal.NewFromInt(300)},
		},
	}
	orch, _ := newTestOrchestrator(t, f)

	_, err := orch.PayDeposit(context.Background(), Session{UserID: 42}, 1, "alipay")
	assert.Equal(t, errs.CodeDuplicatePayment, errs.CodeOf(err))
	// 本地守卫拦截，远端支付接口不应被触发
	assert.Equal(t, int64(0), f.payCalls.Load())
}

func TestPayFinalRequiresDeposit(t *testing.T) {
	f := &fakeServer{order: activeOrder()}
	orch, _ := newTestOrchestrator(t, f)

	_, err := orch.PayFinal(context.Background(), Session{UserID: 42}, 1, "alipay")
	assert.Equal(t, errs.CodePreconditionNotMet, errs.CodeOf(err))
	assert.Equal(t, int64(0), f.payCalls.Load())
}

func TestMutationSingleFlight(t *testing.T) {
	f := &fakeServer{order: activeOrder(), delay: 200 * time.Millisecond}
	orch, _ := newTestOrchestrator(t, f)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orch.PayDeposit(context.Background(), Session{UserID: 42}, 1, "alipay")
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var rejected, ok int
	for err := range errCh {
		switch {
		case err == nil:
			ok++
		case errs.Is(err, errs.CodeInvalidState), errs.Is(err, errs.CodeDuplicatePayment):
			// 单飞锁拒绝是 INVALID_STATE；若首个已完成并刷新，
			// 则由重复守卫给出 DUPLICATE_PAYMENT
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// 恰好一个成功，另一个被挡下
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(1), f.payCalls.Load())
}

func TestMutationInFlightLockRejection(t *testing.T) {
	f := &fakeServer{order: activeOrder()}
	orch, _ := newTestOrchestrator(t, f)

	// 手动占住该订单的单飞锁，模拟一个进行中的变更
	require.True(t, orch.inflight.TryLock(1))
	defer orch.inflight.Unlock(1)

	_, err := orch.PayDeposit(context.Background(), Session{UserID: 42}, 1, "alipay")
	assert.Equal(t, errs.CodeInvalidState, errs.CodeOf(err))
	// 锁拒绝发生在远端调用之前
	assert.Equal(t, int64(0), f.payCalls.Load())
}

func TestClientDecodesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.WriteHTTP(w, errs.New(errs.CodeVehicleUnavailable, "vehicle is not available"))
	}))
	defer srv.Close()

	api := New(config.ClientConfig{BaseURL: srv.URL, TimeoutSeconds: 2}, nil)
	_, err := api.GetOrder(context.Background(), Session{}, 1)
	assert.Equal(t, errs.CodeVehicleUnavailable, errs.CodeOf(err))
}

func TestClientMapsConnectionFailureToUnavailable(t *testing.T) {
	// 指向一个已关闭的端口
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	api := New(config.ClientConfig{BaseURL: url, TimeoutSeconds: 1, BreakerMaxFailures: 2, BreakerResetSeconds: 30}, nil)
	for i := 0; i < 3; i++ {
		_, err := api.GetOrder(context.Background(), Session{}, 1)
		assert.Equal(t, errs.CodeUnavailable, errs.CodeOf(err))
	}
	// 连续失败后熔断开启
	assert.NotEqual(t, int(0), int(api.BreakerState()))
}
