package marketplace

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GTDGit/market_admin/internal/models"
)

// CategoryInput is the create/update form of a category or subcategory.
// Nil fields are left out of the request so an update only touches what
// the caller supplied.
type CategoryInput struct {
	Name       string
	Order      *int
	IsActive   *bool
	IsDisabled *bool
	Level      int

	// ParentID is required for subcategories.
	ParentID string

	// Icon is optional.
	Icon *File
}

func (in CategoryInput) form(create bool) *Form {
	f := NewForm().
		Set("name", strings.ToLower(strings.TrimSpace(in.Name))).
		Set("level", strconv.Itoa(in.Level))
	if in.Order != nil {
		f.Set("order", strconv.Itoa(*in.Order))
	}
	if in.IsActive != nil {
		f.Set("isActive", strconv.FormatBool(*in.IsActive))
	}
	if in.IsDisabled != nil {
		f.Set("isDisabled", strconv.FormatBool(*in.IsDisabled))
	}
	if in.Level == models.LevelSubcategory {
		f.Set("parentId", in.ParentID)
		if create {
			f.Set("type", "both").Set("isDeleted", "false")
		}
	}
	return f.File("file", in.Icon)
}

// ListCategories returns level-0 categories, or the subcategories of
// parentID when level is LevelSubcategory.
func (c *Client) ListCategories(ctx context.Context, level int, parentID string) ([]models.Category, error) {
	q := url.Values{}
	if parentID != "" {
		q.Set("parentId", parentID)
	}
	q.Set("level", strconv.Itoa(level))

	var out []models.Category
	if err := c.doJSON(ctx, http.MethodGet, "/category/all", q, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Category{}
	}
	return out, nil
}

// CreateCategory creates a category or subcategory.
func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) error {
	body, ct, err := in.form(true).Encode()
	if err != nil {
		return err
	}
	return c.doMultipart(ctx, "/category/create", body, ct, nil)
}

// UpdateCategory updates a category or subcategory by id.
func (c *Client) UpdateCategory(ctx context.Context, id string, in CategoryInput) error {
	body, ct, err := in.form(false).Encode()
	if err != nil {
		return err
	}
	return c.doMultipart(ctx, "/category/"+url.PathEscape(id), body, ct, nil)
}

// SetCategoryStatus maps status onto the isDisabled/isDeleted flags.
func (c *Client) SetCategoryStatus(ctx context.Context, id string, status models.Status) error {
	body := map[string]bool{
		"isDisabled": status == models.StatusDisabled,
		"isDeleted":  status == models.StatusDeleted,
	}
	return c.doJSON(ctx, http.MethodPost, "/category/"+url.PathEscape(id), nil, body, nil)
}
