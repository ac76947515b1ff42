package report

import "github.com/shopspring/decimal"

// Dashboard 管理端首页的概览读模型。
// 仅做状态计数，营收统计等重度聚合另有离线任务，不在本服务内。
type Dashboard struct {
	TotalVehicles       int64 `json:"totalVehicles"`
	AvailableVehicles   int64 `json:"availableVehicles"`
	RentedVehicles      int64 `json:"rentedVehicles"`
	MaintenanceVehicles int64 `json:"maintenanceVehicles"`

	TotalOrders     int64 `json:"totalOrders"`
	ActiveOrders    int64 `json:"activeOrders"`
	ReturnedOrders  int64 `json:"returnedOrders"`
	CompletedOrders int64 `json:"completedOrders"`
	CancelledOrders int64 `json:"cancelledOrders"`

	TotalUsers int64 `json:"totalUsers"`
}

// RevenueStatistics 营收读模型。客户端按原样展示，不在客户端做二次计算。
type RevenueStatistics struct {
	Period       string          `json:"period"`
	OrderRevenue decimal.Decimal `json:"orderRevenue"`
	PenaltyTotal decimal.Decimal `json:"penaltyTotal"`
	OrderCount   int64           `json:"orderCount"`
}

// VehicleUtilization 车辆利用率读模型。
type VehicleUtilization struct {
	VehicleID   int64           `json:"vehicleId"`
	PlateNumber string          `json:"plateNumber"`
	RentedDays  int64           `json:"rentedDays"`
	Utilization decimal.Decimal `json:"utilization"`
}
