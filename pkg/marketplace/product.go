package marketplace

import (
	"context"
	"net/http"
	"net/url"

	"github.com/GTDGit/market_admin/internal/models"
)

// CreateProduct posts a multipart product body built by the product form.
func (c *Client) CreateProduct(ctx context.Context, body []byte, contentType string) (*models.Product, error) {
	var out models.Product
	if err := c.doMultipart(ctx, "/product/create", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct posts a multipart update for product id.
func (c *Client) UpdateProduct(ctx context.Context, id string, body []byte, contentType string) (*models.Product, error) {
	var out models.Product
	if err := c.doMultipart(ctx, "/product/"+url.PathEscape(id), body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts fetches one page of the product list. params come from listing.Query.Params.
func (c *Client) ListProducts(ctx context.Context, params url.Values) (*models.ProductPage, error) {
	var out models.ProductPage
	if err := c.doJSON(ctx, http.MethodGet, "/product/productList", params, nil, &out); err != nil {
		return nil, err
	}
	if out.List == nil {
		out.List = []models.Product{}
	}
	return &out, nil
}
