package store

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

func (r *Repo) Create(ctx context.Context, s *Store) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(s).Error
}

func (r *Repo) Update(ctx context.Context, s *Store) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(s).Error
}

func (r *Repo) FindByID(ctx context.Context, id int64) (*Store, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var s Store
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// List 按城市过滤，城市为空返回全部门店。
func (r *Repo) List(ctx context.Context, city string) ([]Store, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Store{})
	if city != "" {
		q = q.Where("city = ?", city)
	}
	var stores []Store
	if err := q.Order("id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}
