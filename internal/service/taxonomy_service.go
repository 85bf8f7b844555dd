package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// Audit entity names.
const (
	EntityCategory       = "category"
	EntitySubcategory    = "subcategory"
	EntityAttributeKey   = "attribute_key"
	EntityAttributeValue = "attribute_value"
	EntityProduct        = "product"
	EntityAddress        = "address"
)

// TaxonomyService manages categories, subcategories and attribute keys/values.
// Every mutation is followed by a full refetch of the affected list.
type TaxonomyService struct {
	client *marketplace.Client
	audit  *AuditService
}

// NewTaxonomyService constructs a TaxonomyService.
func NewTaxonomyService(client *marketplace.Client, audit *AuditService) *TaxonomyService {
	return &TaxonomyService{client: client, audit: audit}
}

// CategoryRequest is the create/update form of a category or subcategory.
// Nil fields were not supplied: create fills in defaults, update leaves
// them unchanged upstream.
type CategoryRequest struct {
	Name       string
	Order      *int
	IsActive   *bool
	IsDisabled *bool
	Icon       *marketplace.File
}

func (r CategoryRequest) input(level int, parentID string) (marketplace.CategoryInput, error) {
	if strings.TrimSpace(r.Name) == "" {
		return marketplace.CategoryInput{}, invalid("Name is required")
	}
	return marketplace.CategoryInput{
		Name:       r.Name,
		Order:      r.Order,
		IsActive:   r.IsActive,
		IsDisabled: r.IsDisabled,
		Level:      level,
		ParentID:   parentID,
		Icon:       r.Icon,
	}, nil
}

// withDefaults fills the fields a new category needs.
func (r CategoryRequest) withDefaults() CategoryRequest {
	if r.Order == nil {
		r.Order = intPtr(0)
	}
	if r.IsActive == nil {
		r.IsActive = boolPtr(true)
	}
	if r.IsDisabled == nil {
		r.IsDisabled = boolPtr(false)
	}
	return r
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// ListCategories returns the level-0 categories.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]models.Category, error) {
	list, err := s.client.ListCategories(ctx, models.LevelCategory, "")
	if err != nil {
		return nil, requestFailed(err, "Error fetching categories")
	}
	return list, nil
}

// CreateCategory creates a level-0 category.
func (s *TaxonomyService) CreateCategory(ctx context.Context, adminID int, req CategoryRequest) ([]models.Category, error) {
	in, err := req.withDefaults().input(models.LevelCategory, "")
	if err != nil {
		return nil, err
	}
	err = requestFailed(s.client.CreateCategory(ctx, in), "Failed to create category")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityCategory, Action: "create", Message: "Category created successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListCategories(ctx)
}

// UpdateCategory updates a level-0 category.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, adminID int, id string, req CategoryRequest) ([]models.Category, error) {
	in, err := req.input(models.LevelCategory, "")
	if err != nil {
		return nil, err
	}
	err = requestFailed(s.client.UpdateCategory(ctx, id, in), "Update failed")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityCategory, Action: "update", EntityID: id, Message: "Category updated successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListCategories(ctx)
}

// SetCategoryStatus enables, disables or deletes a category. Disable and
// delete need confirm.
func (s *TaxonomyService) SetCategoryStatus(ctx context.Context, adminID int, id string, status models.Status, confirm bool) ([]models.Category, error) {
	if err := checkStatus(status, confirm, "category"); err != nil {
		return nil, err
	}
	err := requestFailed(s.client.SetCategoryStatus(ctx, id, status), "Failed to toggle status")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityCategory, Action: statusAction(status), EntityID: id, Message: statusMessage("Category", status)}, err)
	if err != nil {
		return nil, err
	}
	return s.ListCategories(ctx)
}

// ListSubcategories returns the subcategories of parentID.
func (s *TaxonomyService) ListSubcategories(ctx context.Context, parentID string) ([]models.Category, error) {
	if parentID == "" {
		return nil, invalid("Parent category is required")
	}
	list, err := s.client.ListCategories(ctx, models.LevelSubcategory, parentID)
	if err != nil {
		return nil, requestFailed(err, "Error fetching subcategories")
	}
	return list, nil
}

// CreateSubcategory creates a subcategory under parentID.
func (s *TaxonomyService) CreateSubcategory(ctx context.Context, adminID int, parentID string, req CategoryRequest) ([]models.Category, error) {
	if parentID == "" {
		return nil, invalid("Parent category is required")
	}
	in, err := req.withDefaults().input(models.LevelSubcategory, parentID)
	if err != nil {
		return nil, err
	}
	err = requestFailed(s.client.CreateCategory(ctx, in), "Failed to create subcategory")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntitySubcategory, Action: "create", Message: "Subcategory created successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListSubcategories(ctx, parentID)
}

// UpdateSubcategory updates a subcategory of parentID.
func (s *TaxonomyService) UpdateSubcategory(ctx context.Context, adminID int, id, parentID string, req CategoryRequest) ([]models.Category, error) {
	if parentID == "" {
		return nil, invalid("Parent category is required")
	}
	in, err := req.input(models.LevelSubcategory, parentID)
	if err != nil {
		return nil, err
	}
	err = requestFailed(s.client.UpdateCategory(ctx, id, in), "Update failed")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntitySubcategory, Action: "update", EntityID: id, Message: "Subcategory updated successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListSubcategories(ctx, parentID)
}

// SetSubcategoryStatus changes a subcategory status and refetches its siblings.
func (s *TaxonomyService) SetSubcategoryStatus(ctx context.Context, adminID int, id, parentID string, status models.Status, confirm bool) ([]models.Category, error) {
	if parentID == "" {
		return nil, invalid("Parent category is required")
	}
	if err := checkStatus(status, confirm, "subcategory"); err != nil {
		return nil, err
	}
	err := requestFailed(s.client.SetCategoryStatus(ctx, id, status), "Failed to toggle status")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntitySubcategory, Action: statusAction(status), EntityID: id, Message: statusMessage("Subcategory", status)}, err)
	if err != nil {
		return nil, err
	}
	return s.ListSubcategories(ctx, parentID)
}

// ListAttributeKeys returns the attribute keys of a subcategory with their values.
func (s *TaxonomyService) ListAttributeKeys(ctx context.Context, subcategoryID string) ([]models.AttributeKey, error) {
	if subcategoryID == "" {
		return nil, invalid("Subcategory is required")
	}
	keys, err := s.client.ListAttributeKeys(ctx, subcategoryID)
	if err != nil {
		return nil, requestFailed(err, "Error fetching attributes")
	}
	return keys, nil
}

// AttributeKeyRequest creates an attribute key.
type AttributeKeyRequest struct {
	Name       string
	Order      int
	IsRequired bool
}

// CreateAttributeKey adds a key to a subcategory.
func (s *TaxonomyService) CreateAttributeKey(ctx context.Context, adminID int, subcategoryID string, req AttributeKeyRequest) ([]models.AttributeKey, error) {
	if subcategoryID == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalid("Subcategory and name are required")
	}
	err := requestFailed(s.client.CreateAttributeKey(ctx, marketplace.AttributeKeyInput{
		Name:          req.Name,
		Order:         req.Order,
		SubcategoryID: subcategoryID,
		IsRequired:    req.IsRequired,
	}), "Failed to create attribute key")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityAttributeKey, Action: "create", Message: "Attribute key created successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListAttributeKeys(ctx, subcategoryID)
}

// UpdateAttributeKey renames a key and, when order is given, reorders it.
func (s *TaxonomyService) UpdateAttributeKey(ctx context.Context, adminID int, id, subcategoryID, name string, order *int) ([]models.AttributeKey, error) {
	if subcategoryID == "" || strings.TrimSpace(name) == "" {
		return nil, invalid("Subcategory and name are required")
	}
	err := requestFailed(s.client.UpdateAttributeKey(ctx, id, name, order), "Key update failed")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityAttributeKey, Action: "update", EntityID: id, Message: "Attribute key updated successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListAttributeKeys(ctx, subcategoryID)
}

// SetAttributeKeyStatus enables, disables or deletes a key.
func (s *TaxonomyService) SetAttributeKeyStatus(ctx context.Context, adminID int, id, subcategoryID string, status models.Status, confirm bool) ([]models.AttributeKey, error) {
	if subcategoryID == "" {
		return nil, invalid("Subcategory is required")
	}
	if err := checkStatus(status, confirm, "attribute key"); err != nil {
		return nil, err
	}
	err := requestFailed(s.client.SetAttributeKeyStatus(ctx, id, status), "Failed to toggle disable")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityAttributeKey, Action: statusAction(status), EntityID: id, Message: statusMessage("Attribute key", status)}, err)
	if err != nil {
		return nil, err
	}
	return s.ListAttributeKeys(ctx, subcategoryID)
}

// AddAttributeValue adds a value to a key.
func (s *TaxonomyService) AddAttributeValue(ctx context.Context, adminID int, keyID, subcategoryID, value string) ([]models.AttributeKey, error) {
	if subcategoryID == "" || strings.TrimSpace(value) == "" {
		return nil, invalid("Subcategory and value are required")
	}
	err := requestFailed(s.client.CreateAttributeValue(ctx, keyID, value, subcategoryID), "Failed to add value")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityAttributeValue, Action: "create", EntityID: keyID, Message: "Value added successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListAttributeKeys(ctx, subcategoryID)
}

// UpdateAttributeValue changes the text of a value.
func (s *TaxonomyService) UpdateAttributeValue(ctx context.Context, adminID int, id, subcategoryID, value string) ([]models.AttributeKey, error) {
	if subcategoryID == "" || strings.TrimSpace(value) == "" {
		return nil, invalid("Subcategory and value are required")
	}
	err := requestFailed(s.client.UpdateAttributeValue(ctx, id, value), "Update failed")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityAttributeValue, Action: "update", EntityID: id, Message: "Value updated successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListAttributeKeys(ctx, subcategoryID)
}

// DeleteAttributeValue soft-deletes a value. It needs confirm.
func (s *TaxonomyService) DeleteAttributeValue(ctx context.Context, adminID int, id, subcategoryID string, confirm bool) ([]models.AttributeKey, error) {
	if subcategoryID == "" {
		return nil, invalid("Subcategory is required")
	}
	if !confirm {
		return nil, needConfirm("Are you sure you want to delete this value?")
	}
	err := requestFailed(s.client.DeleteAttributeValue(ctx, id), "Delete failed")
	s.audit.Record(Activity{AdminID: adminID, Entity: EntityAttributeValue, Action: "delete", EntityID: id, Message: "Value deleted successfully"}, err)
	if err != nil {
		return nil, err
	}
	return s.ListAttributeKeys(ctx, subcategoryID)
}

func checkStatus(status models.Status, confirm bool, noun string) error {
	if !status.Valid() {
		return &InputError{Code: utils.ErrInvalidStatus, Message: fmt.Sprintf("Unknown status %q", status)}
	}
	if status.Destructive() && !confirm {
		verb := "disable"
		if status == models.StatusDeleted {
			verb = "delete"
		}
		log.Debug().Str("status", string(status)).Msg("Destructive status change without confirmation")
		return needConfirm("Are you sure you want to %s this %s?", verb, noun)
	}
	return nil
}

func statusAction(status models.Status) string {
	switch status {
	case models.StatusDeleted:
		return "delete"
	case models.StatusDisabled:
		return "disable"
	default:
		return "enable"
	}
}

func statusMessage(noun string, status models.Status) string {
	switch status {
	case models.StatusDeleted:
		return noun + " deleted successfully"
	case models.StatusDisabled:
		return noun + " disabled successfully"
	default:
		return noun + " enabled successfully"
	}
}
