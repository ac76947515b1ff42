package pricing

import (
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/shopspring/decimal"
)

// 计费规则：
// - 不足 24 小时按 1 天计
// - 押金 = 日租金 × 3
// - 超期费率 = 日租金的 1.5 倍 / 天（超期不足一天按一天计）
var (
	depositRate = decimal.NewFromInt(3)
	overdueRate = decimal.RequireFromString("1.5")
)

// Quote 租期报价。金额计算全程使用 decimal，只在展示层做两位小数舍入。
type Quote struct {
	Days    int64           `json:"days"`
	Deposit decimal.Decimal `json:"deposit"`
	Total   decimal.Decimal `json:"total"`
}

// ComputeQuote 按日租金和租期计算计费天数、押金与租金总额。
// 纯函数：相同输入必得相同输出，不依赖时钟或任何外部状态。
func ComputeQuote(dailyRate decimal.Decimal, start, end time.Time) (Quote, error) {
	if !dailyRate.IsPositive() {
		return Quote{}, errs.New(errs.CodeInvalidAmount, "daily rate must be positive")
	}
	if !end.After(start) {
		return Quote{}, errs.New(errs.CodeInvalidInterval, "end time must be after start time")
	}

	days := billedDays(end.Sub(start))
	return Quote{
		Days:    days,
		Deposit: dailyRate.Mul(depositRate),
		Total:   dailyRate.Mul(decimal.NewFromInt(days)),
	}, nil
}

// OverduePenalty 超期罚金 = 日租金 × 1.5 × 超期天数（向上取整）。
// 未超期返回零。
func OverduePenalty(dailyRate decimal.Decimal, end, actualReturn time.Time) decimal.Decimal {
	if !actualReturn.After(end) {
		return decimal.Zero
	}
	days := billedDays(actualReturn.Sub(end))
	return dailyRate.Mul(overdueRate).Mul(decimal.NewFromInt(days))
}

// billedDays 把时长换算成计费天数：ceil(d / 24h)，最少 1 天。
// 用整数运算避免浮点误差。
func billedDays(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	day := 24 * time.Hour
	days := int64((d + day - 1) / day)
	if days < 1 {
		days = 1
	}
	return days
}
