package services

import (
	"context"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/models"
	"github.com/diewo77/billing-core/internal/render"
	"github.com/diewo77/billing-core/internal/store"
)

// TemplateService owns template management: every stored body has passed a
// syntax check, and at most one template carries the default flag.
type TemplateService struct {
	stores *store.Stores
}

func NewTemplateService(stores *store.Stores) *TemplateService {
	return &TemplateService{stores: stores}
}

// Create syntax-checks and stores a new template. The first template ever
// stored becomes the default regardless of the requested flag, so document
// generation always has a fallback.
func (s *TemplateService) Create(ctx context.Context, t *models.Template) error {
	if t.Name == "" {
		return apperr.New(apperr.KindValidation, "template name is required")
	}
	if err := render.Check(t.HTML); err != nil {
		return err
	}
	count, err := s.stores.Templates.Count(ctx)
	if err != nil {
		return err
	}
	// The store's Create moves the default flag in the same transaction.
	t.IsDefault = t.IsDefault || count == 0
	return s.stores.Templates.Create(ctx, t)
}

// Update syntax-checks and stores a changed template. Turning the default
// flag on moves it off whichever template held it; clearing it directly is
// rejected, since that would leave no default to fall back on.
func (s *TemplateService) Update(ctx context.Context, t *models.Template) error {
	if err := render.Check(t.HTML); err != nil {
		return err
	}
	current, err := s.stores.Templates.FindByID(ctx, t.ID)
	if err != nil {
		return err
	}
	if current.IsDefault && !t.IsDefault {
		return apperr.New(apperr.KindValidation,
			"cannot clear the default flag; make another template the default instead")
	}
	wantDefault := t.IsDefault
	t.IsDefault = current.IsDefault
	if err := s.stores.Templates.Update(ctx, t); err != nil {
		return err
	}
	if wantDefault && !current.IsDefault {
		if err := s.stores.Templates.SetDefault(ctx, t.ID); err != nil {
			return err
		}
		t.IsDefault = true
	}
	return nil
}

// SetDefault flags the template as the default, clearing the previous one.
func (s *TemplateService) SetDefault(ctx context.Context, id uint) error {
	return s.stores.Templates.SetDefault(ctx, id)
}

// Delete removes a template unless it is referenced or the sole template.
func (s *TemplateService) Delete(ctx context.Context, id uint) error {
	return s.stores.Templates.Delete(ctx, id)
}

// Get fetches one template.
func (s *TemplateService) Get(ctx context.Context, id uint) (*models.Template, error) {
	return s.stores.Templates.FindByID(ctx, id)
}

// List returns all templates.
func (s *TemplateService) List(ctx context.Context) ([]models.Template, error) {
	return s.stores.Templates.FindAll(ctx)
}

// EnsureDefault seeds the built-in template when the table is empty so PDF
// generation works before any template management has happened.
func (s *TemplateService) EnsureDefault(ctx context.Context) error {
	count, err := s.stores.Templates.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	t := render.DefaultTemplate()
	if err := s.stores.Templates.Create(ctx, &t); err != nil {
		return err
	}
	log.Infof("Seeded built-in template %q", t.Name)
	return nil
}
