package marketplace

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/GTDGit/market_admin/internal/models"
)

// AttributeKeyInput creates an attribute key under a subcategory.
type AttributeKeyInput struct {
	Name          string `json:"name"`
	Order         int    `json:"order"`
	SubcategoryID string `json:"categoryId"`
	IsRequired    bool   `json:"isRequired,omitempty"`
}

// ListAttributeKeys returns the keys of a subcategory with their values.
func (c *Client) ListAttributeKeys(ctx context.Context, subcategoryID string) ([]models.AttributeKey, error) {
	var out []models.AttributeKey
	path := "/category/getAllKeyParamentbySubcategory/" + url.PathEscape(subcategoryID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.AttributeKey{}
	}
	return out, nil
}

func (c *Client) CreateAttributeKey(ctx context.Context, in AttributeKeyInput) error {
	in.Name = normalizeName(in.Name)
	return c.doJSON(ctx, http.MethodPost, "/attributKey/create", nil, in, nil)
}

// UpdateAttributeKey renames a key. A nil order leaves it unchanged.
func (c *Client) UpdateAttributeKey(ctx context.Context, id, name string, order *int) error {
	body := map[string]any{"name": normalizeName(name)}
	if order != nil {
		body["order"] = *order
	}
	return c.doJSON(ctx, http.MethodPost, "/attributKey/"+url.PathEscape(id), nil, body, nil)
}

// SetAttributeKeyStatus maps status onto the isDisable/isDeleted flags.
func (c *Client) SetAttributeKeyStatus(ctx context.Context, id string, status models.Status) error {
	body := map[string]bool{
		"isDisable": status == models.StatusDisabled,
		"isDeleted": status == models.StatusDeleted,
	}
	return c.doJSON(ctx, http.MethodPost, "/attributKey/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) CreateAttributeValue(ctx context.Context, keyID, value, subcategoryID string) error {
	body := map[string]string{
		"key":        keyID,
		"value":      normalizeName(value),
		"categoryId": subcategoryID,
	}
	return c.doJSON(ctx, http.MethodPost, "/attributValue/create", nil, body, nil)
}

func (c *Client) UpdateAttributeValue(ctx context.Context, id, value string) error {
	body := map[string]string{"value": normalizeName(value)}
	return c.doJSON(ctx, http.MethodPost, "/attributValue/"+url.PathEscape(id), nil, body, nil)
}

// DeleteAttributeValue soft deletes a value.
func (c *Client) DeleteAttributeValue(ctx context.Context, id string) error {
	body := map[string]bool{"isDeleted": true}
	return c.doJSON(ctx, http.MethodPost, "/attributValue/"+url.PathEscape(id), nil, body, nil)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
