package maintenance

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(rec).Error
}

func (r *Repo) Update(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(rec).Error
}

func (r *Repo) FindByID(ctx context.Context, id int64) (*Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rec Record
	if err := db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountOpen 统计某车辆未完结的维保单数。
func (r *Repo) CountOpen(ctx context.Context, vehicleID int64) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var count int64
	err := db.Model(&Record{}).
		Where("vehicle_id = ? AND end_date IS NULL", vehicleID).
		Count(&count).Error
	return count, err
}

// ListByVehicle 按车辆查维保历史，最近的在前。
func (r *Repo) ListByVehicle(ctx context.Context, vehicleID int64) ([]Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var recs []Record
	err := db.Where("vehicle_id = ?", vehicleID).
		Order("start_date DESC").Find(&recs).Error
	return recs, err
}
