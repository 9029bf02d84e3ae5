package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// categoryService handles category-related business logic. Categories are
// global; only staff reach the mutating methods.
type categoryService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, audit AuditServicer) CategoryServicer {
	return &categoryService{db: db, audit: audit}
}

// ListByKind returns every category of kind ordered by name.
func (s *categoryService) ListByKind(kind models.Kind) ([]models.Category, error) {
	if !kind.Valid() {
		return nil, apperrors.ErrInvalidKind
	}

	categories := []models.Category{}
	if err := s.db.Where("kind = ?", kind).Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListCategories retrieves a paginated list of all categories.
func (s *categoryService) ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *categoryService) nameTaken(name, exceptID string) (bool, error) {
	var count int64
	q := s.db.Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// CreateCategory creates a new category. actorID is the staff user recorded
// in the audit log.
func (s *categoryService) CreateCategory(actorID, name string, kind models.Kind, icon string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !kind.Valid() {
		return nil, apperrors.ErrInvalidKind
	}

	taken, err := s.nameTaken(name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{Name: name, Kind: kind, Icon: icon}
	if err := s.db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(AuditEvent{
		ActorID:      actorID,
		Action:       ActionCategoryCreated,
		ResourceType: "category",
		ResourceID:   category.ID,
		Changes:      map[string]interface{}{"name": category.Name, "kind": category.Kind},
	})
	return category, nil
}

// UpdateCategory updates an existing category. Changing the kind of a
// category that expenses of the old kind still reference is refused.
func (s *categoryService) UpdateCategory(actorID, categoryID, name, icon string, kind *models.Kind) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		taken, err := s.nameTaken(name, categoryID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrDuplicateCategory
		}
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if kind != nil && *kind != category.Kind {
		if !kind.Valid() {
			return nil, apperrors.ErrInvalidKind
		}
		var referenced int64
		if err := s.db.Model(&models.Expense{}).
			Where("category_id = ? AND kind <> ?", categoryID, *kind).
			Count(&referenced).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if referenced > 0 {
			return nil, apperrors.ErrCategoryKindMismatch
		}
		updates["kind"] = *kind
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrDuplicateCategory
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		s.audit.Record(AuditEvent{
			ActorID:      actorID,
			Action:       ActionCategoryUpdated,
			ResourceType: "category",
			ResourceID:   category.ID,
			Changes:      updates,
		})
	}

	return category, nil
}

// DeleteCategory removes a category for good. Expenses that referenced it
// are kept and lose their category.
func (s *categoryService) DeleteCategory(actorID, categoryID string) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Deleted expenses keep no reference either.
		if err := tx.Unscoped().Model(&models.Expense{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(AuditEvent{
		ActorID:      actorID,
		Action:       ActionCategoryDeleted,
		ResourceType: "category",
		ResourceID:   category.ID,
		Changes:      map[string]interface{}{"name": category.Name},
	})
	return nil
}
