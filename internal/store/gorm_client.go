package store

import (
	"context"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormClientStore struct {
	db *gorm.DB
}

func (s *gormClientStore) FindAll(ctx context.Context, f ClientFilter) ([]models.Client, error) {
	q := s.db.WithContext(ctx).Model(&models.Client{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var clients []models.Client
	if err := q.Order("id").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *gormClientStore) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "client")
	}
	return &c, nil
}

func (s *gormClientStore) Create(ctx context.Context, c *models.Client) error {
	return translate(s.db.WithContext(ctx).Create(c).Error, "client")
}

func (s *gormClientStore) Update(ctx context.Context, c *models.Client) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error, "client")
}

func (s *gormClientStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Client
		if err := tx.First(&c, id).Error; err != nil {
			return translate(err, "client")
		}
		var refs int64
		if err := tx.Model(&models.Invoice{}).Where("client_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return apperr.New(apperr.KindConflict,
				"client %d is referenced by %d invoice(s)", id, refs)
		}
		return tx.Delete(&models.Client{}, id).Error
	})
}
