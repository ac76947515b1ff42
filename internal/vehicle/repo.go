package vehicle

import (
	"context"
	"fmt"
	"time"

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

func (r *Repo) Create(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

func (r *Repo) Update(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(v).Error
}

func (r *Repo) FindByID(ctx context.Context, id int64) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateStatus 只改状态字段，订单流程和维修流程共用。
func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Model(&Vehicle{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateStore 异地还车时把车辆划转到实际还车门店。
func (r *Repo) UpdateStore(ctx context.Context, id, storeID int64) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Model(&Vehicle{}).Where("id = ?", id).Update("store_id", storeID).Error
}

// List 支持按 store_id / category_id / status 过滤 + 分页。
func (r *Repo) List(ctx context.Context, storeID, categoryID int64, status Status, offset, limit int) ([]Vehicle, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := db.Model(&Vehicle{})
	if storeID > 0 {
		q = q.Where("store_id = ?", storeID)
	}
	if categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vehicles []Vehicle
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

// SearchAvailable 查询门店在指定时间段内可租的车辆：
// 状态为空闲，且该时间段内没有未终结订单占用。
// blockingStatuses 由调用方传入（订单的非终态集合），避免反向依赖 order 包。
func (r *Repo) SearchAvailable(ctx context.Context, storeID int64, start, end time.Time, blockingStatuses []string) ([]Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}

	q := db.Model(&Vehicle{}).Where("status = ?", StatusAvailable)
	if storeID > 0 {
		q = q.Where("store_id = ?", storeID)
	}
	q = q.Where(
		"id NOT IN (SELECT vehicle_id FROM orders WHERE status IN ? AND start_time < ? AND end_time > ?)",
		blockingStatuses, end, start,
	)

	var vehicles []Vehicle
	if err := q.Order("daily_rate ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}
