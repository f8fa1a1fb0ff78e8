package store

import (
	"context"
	"time"

	"github.com/diewo77/billing-core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormInvoiceStore struct {
	db *gorm.DB
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

func (s *gormInvoiceStore) FindAll(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var invs []models.Invoice
	if err := q.Preload("Items", itemsInOrder).Order("id desc").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (s *gormInvoiceStore) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Preload("Client").
		First(&inv, id).Error
	if err != nil {
		return nil, translate(err, "invoice")
	}
	return &inv, nil
}

func (s *gormInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := inv.Items
		inv.Items = nil
		if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
			return translate(err, "invoice number")
		}
		for i := range items {
			items[i].ID = 0
			items[i].InvoiceID = inv.ID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = items
		return nil
	})
}

func (s *gormInvoiceStore) Update(ctx context.Context, inv *models.Invoice) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Save(inv).Error, "invoice")
}

func (s *gormInvoiceStore) UpdateWithItems(ctx context.Context, inv *models.Invoice) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return translate(err, "invoice number")
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		items := inv.Items
		for i := range items {
			items[i].ID = 0
			items[i].InvoiceID = inv.ID
			items[i].Position = i
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (s *gormInvoiceStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, id).Error
	})
}

func (s *gormInvoiceStore) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	// Unscoped: soft-deleted invoices keep occupying the unique index on
	// number, so their slots must stay counted or the sequence would
	// reissue a taken number.
	var count int64
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

func (s *gormInvoiceStore) FindDueBefore(ctx context.Context, t time.Time) ([]models.Invoice, error) {
	var invs []models.Invoice
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, t).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}
