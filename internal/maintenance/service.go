package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CarRentHub/CarRentHub/internal/common/errs"
	"github.com/CarRentHub/CarRentHub/internal/vehicle"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service 维保生命周期：开单占用车辆，结单释放车辆。
type Service struct {
	repo     *Repo
	vehicles *vehicle.Repo
}

func NewService(repo *Repo, vehicles *vehicle.Repo) *Service {
	return &Service{repo: repo, vehicles: vehicles}
}

// OpenInput 开维保单的入参。
type OpenInput struct {
	VehicleID   int64
	Type        string
	Cost        decimal.Decimal
	Description string
}

// Open 开维保单：仅空闲车辆可送修，车辆转入 maintenance。
func (s *Service) Open(ctx context.Context, in OpenInput) (*Record, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if in.Type == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "maintenance type required")
	}
	if in.Cost.IsNegative() {
		return nil, errs.New(errs.CodeInvalidAmount, "cost must not be negative")
	}

	v, err := s.vehicles.FindByID(ctx, in.VehicleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeNotFound, "vehicle not found")
	}
	if err != nil {
		return nil, err
	}
	if v.Status != vehicle.StatusAvailable {
		return nil, errs.New(errs.CodeInvalidState, "vehicle is %s, only available vehicles can enter maintenance", v.Status)
	}

	rec := &Record{
		VehicleID:   in.VehicleID,
		Type:        in.Type,
		Cost:        in.Cost,
		StartDate:   time.Now(),
		Description: in.Description,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.vehicles.UpdateStatus(ctx, v.ID, vehicle.StatusMaintenance); err != nil {
		return nil, err
	}
	return rec, nil
}

// Close 结单：记录完成时间与最终费用，车辆回到空闲。
// 同车还有其他未完结维保单时车辆保持 maintenance。
func (s *Service) Close(ctx context.Context, recordID int64, cost decimal.Decimal) (*Record, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	rec, err := s.repo.FindByID(ctx, recordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.New(errs.CodeNotFound, "maintenance record not found")
	}
	if err != nil {
		return nil, err
	}
	if rec.EndDate != nil {
		return nil, errs.New(errs.CodeInvalidState, "maintenance record already closed")
	}
	if cost.IsNegative() {
		return nil, errs.New(errs.CodeInvalidAmount, "cost must not be negative")
	}

	now := time.Now()
	rec.EndDate = &now
	if cost.IsPositive() {
		rec.Cost = cost
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	open, err := s.repo.CountOpen(ctx, rec.VehicleID)
	if err != nil {
		return nil, err
	}
	if open == 0 {
		if err := s.vehicles.UpdateStatus(ctx, rec.VehicleID, vehicle.StatusAvailable); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// History 查车辆维保历史。
func (s *Service) History(ctx context.Context, vehicleID int64) ([]Record, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.ListByVehicle(ctx, vehicleID)
}
