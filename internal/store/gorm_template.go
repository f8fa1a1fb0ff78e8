package store

import (
	"context"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/models"
	"gorm.io/gorm"
)

type gormTemplateStore struct {
	db *gorm.DB
}

func (s *gormTemplateStore) FindAll(ctx context.Context) ([]models.Template, error) {
	var tpls []models.Template
	if err := s.db.WithContext(ctx).Order("id").Find(&tpls).Error; err != nil {
		return nil, err
	}
	return tpls, nil
}

func (s *gormTemplateStore) FindByID(ctx context.Context, id uint) (*models.Template, error) {
	var t models.Template
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err, "template")
	}
	return &t, nil
}

func (s *gormTemplateStore) FindDefault(ctx context.Context) (*models.Template, error) {
	var t models.Template
	err := s.db.WithContext(ctx).Where("is_default = ?", true).First(&t).Error
	if err != nil {
		return nil, translate(err, "default template")
	}
	return &t, nil
}

// Create stores the template. When the default flag is set, the previous
// default is cleared inside the same transaction, so the at-most-one-default
// invariant holds at every commit point.
func (s *gormTemplateStore) Create(ctx context.Context, t *models.Template) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return translate(err, "template name")
		}
		if !t.IsDefault {
			return nil
		}
		return tx.Model(&models.Template{}).
			Where("is_default = ? AND id <> ?", true, t.ID).
			Update("is_default", false).Error
	})
}

func (s *gormTemplateStore) Update(ctx context.Context, t *models.Template) error {
	return translate(s.db.WithContext(ctx).Save(t).Error, "template name")
}

// SetDefault enforces the at-most-one-default invariant with a conditional
// clear-then-set inside one transaction instead of an application-side scan.
func (s *gormTemplateStore) SetDefault(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Template
		if err := tx.First(&t, id).Error; err != nil {
			return translate(err, "template")
		}
		err := tx.Model(&models.Template{}).
			Where("is_default = ? AND id <> ?", true, id).
			Update("is_default", false).Error
		if err != nil {
			return err
		}
		return tx.Model(&t).Update("is_default", true).Error
	})
}

func (s *gormTemplateStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Template
		if err := tx.First(&t, id).Error; err != nil {
			return translate(err, "template")
		}
		var total int64
		if err := tx.Model(&models.Template{}).Count(&total).Error; err != nil {
			return err
		}
		if total <= 1 {
			return apperr.New(apperr.KindConflict, "cannot delete the sole template")
		}
		var refs int64
		if err := tx.Model(&models.Invoice{}).Where("template_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return apperr.New(apperr.KindConflict,
				"template %d is referenced by %d invoice(s)", id, refs)
		}
		return tx.Delete(&models.Template{}, id).Error
	})
}

func (s *gormTemplateStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Template{}).Count(&count).Error
	return count, err
}
