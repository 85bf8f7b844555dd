package marketplace

import (
	"context"
	"net/http"

	"github.com/GTDGit/market_admin/internal/models"
)

// ListAddresses returns the saved addresses of the authenticated user.
func (c *Client) ListAddresses(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	if err := c.doJSON(ctx, http.MethodGet, "/userAddress", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Address{}
	}
	return out, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, a models.Address) (*models.Address, error) {
	a.ID = ""
	var out models.Address
	if err := c.doJSON(ctx, http.MethodPost, "/userAddress", nil, a, &out); err != nil {
		return nil, err
	}
	if out.ID == "" && out.FormattedAddress == "" {
		return &a, nil
	}
	return &out, nil
}
