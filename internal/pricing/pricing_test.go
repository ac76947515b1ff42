package pricing

import (
	"testing"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestComputeQuoteBilledDays(t *testing.T) {
	rate := decimal.NewFromInt(100)

	cases := []struct {
		name     string
		duration time.Duration
		wantDays int64
	}{
		{"sub-24h bills one day", 23 * time.Hour, 1},
		{"exactly 24h bills one day", 24 * time.Hour, 1},
		{"25h bills two days", 25 * time.Hour, 2},
		{"two full days", 48 * time.Hour, 2},
		{"one minute bills one day", time.Minute, 1},
	}

	for _, tc := range cases {
		q, err := ComputeQuote(rate, baseTime, baseTime.Add(tc.duration))
		if err != nil {
			t.Fatalf("%s: ComputeQuote: %v", tc.name, err)
		}
		if q.Days != tc.wantDays {
			t.Fatalf("%s: expected %d days, got %d", tc.name, tc.wantDays, q.Days)
		}
		wantTotal := rate.Mul(decimal.NewFromInt(tc.wantDays))
		if !q.Total.Equal(wantTotal) {
			t.Fatalf("%s: expected total %s, got %s", tc.name, wantTotal, q.Total)
		}
	}
}

func TestComputeQuoteDepositIndependentOfInterval(t *testing.T) {
	rate := decimal.RequireFromString("199.99")
	wantDeposit := rate.Mul(decimal.NewFromInt(3))

	for _, d := range []time.Duration{time.Hour, 48 * time.Hour, 30 * 24 * time.Hour} {
		q, err := ComputeQuote(rate, baseTime, baseTime.Add(d))
		if err != nil {
			t.Fatalf("ComputeQuote: %v", err)
		}
		if !q.Deposit.Equal(wantDeposit) {
			t.Fatalf("expected deposit %s, got %s", wantDeposit, q.Deposit)
		}
	}
}

func TestComputeQuoteInvalidInterval(t *testing.T) {
	rate := decimal.NewFromInt(100)

	if _, err := ComputeQuote(rate, baseTime, baseTime); !errs.Is(err, errs.CodeInvalidInterval) {
		t.Fatalf("expected INVALID_INTERVAL for end == start, got %v", err)
	}
	if _, err := ComputeQuote(rate, baseTime, baseTime.Add(-time.Hour)); !errs.Is(err, errs.CodeInvalidInterval) {
		t.Fatalf("expected INVALID_INTERVAL for end < start, got %v", err)
	}
	if _, err := ComputeQuote(decimal.Zero, baseTime, baseTime.Add(time.Hour)); !errs.Is(err, errs.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT for zero rate, got %v", err)
	}
}

func TestOverduePenalty(t *testing.T) {
	rate := decimal.NewFromInt(100)
	end := baseTime.Add(48 * time.Hour)

	// 按时或提前归还不产生罚金
	if p := OverduePenalty(rate, end, end); !p.IsZero() {
		t.Fatalf("expected zero penalty on-time, got %s", p)
	}
	if p := OverduePenalty(rate, end, end.Add(-time.Hour)); !p.IsZero() {
		t.Fatalf("expected zero penalty for early return, got %s", p)
	}

	// 超期 5 小时按 1 天计：100 × 1.5 × 1 = 150
	if p := OverduePenalty(rate, end, end.Add(5*time.Hour)); !p.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected penalty 150, got %s", p)
	}

	// 超期 25 小时按 2 天计：100 × 1.5 × 2 = 300
	if p := OverduePenalty(rate, end, end.Add(25*time.Hour)); !p.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected penalty 300, got %s", p)
	}
}

func TestOverduePenaltyScenario(t *testing.T) {
	// 日租金 200，超期 30 小时 → 200 × 1.5 × 2 = 600
	rate := decimal.NewFromInt(200)
	end := baseTime.Add(48 * time.Hour)
	if p := OverduePenalty(rate, end, end.Add(30*time.Hour)); !p.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected penalty 600, got %s", p)
	}
}
