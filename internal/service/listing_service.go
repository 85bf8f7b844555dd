package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/listing"
	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// ViewStore persists each admin's list screen state.
type ViewStore interface {
	Get(ctx context.Context, adminID int) (listing.Query, error)
	Save(ctx context.Context, adminID int, q listing.Query) error
}

// ProductList is one rendered page of the product list.
type ProductList struct {
	Query      listing.Query    `json:"query"`
	Products   []models.Product `json:"products"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
}

// ListingService fetches the product list for a query.
type ListingService struct {
	client *marketplace.Client
	views  ViewStore
}

// NewListingService constructs a ListingService.
func NewListingService(client *marketplace.Client, views ViewStore) *ListingService {
	return &ListingService{client: client, views: views}
}

// List fetches the page described by q.
func (s *ListingService) List(ctx context.Context, q listing.Query) (*ProductList, error) {
	q = q.Normalize()
	page, err := s.client.ListProducts(ctx, q.Params())
	if err != nil {
		return nil, requestFailed(err, "Failed to fetch products")
	}
	products := page.List
	if products == nil {
		products = []models.Product{}
	}
	return &ProductList{
		Query:      q,
		Products:   products,
		Total:      page.Total,
		TotalPages: q.TotalPages(page.Total),
	}, nil
}

// View returns the admin's stored list state and its current page.
func (s *ListingService) View(ctx context.Context, adminID int) (*ProductList, error) {
	q, err := s.views.Get(ctx, adminID)
	if err != nil {
		log.Warn().Err(err).Int("admin_id", adminID).Msg("Failed to load list view, using defaults")
		q = listing.New()
	}
	return s.List(ctx, q)
}

// ApplyView runs one list action, stores the new state and refetches.
func (s *ListingService) ApplyView(ctx context.Context, adminID int, a listing.Action) (*ProductList, error) {
	q, err := s.views.Get(ctx, adminID)
	if err != nil {
		log.Warn().Err(err).Int("admin_id", adminID).Msg("Failed to load list view, using defaults")
		q = listing.New()
	}

	next, err := listing.Apply(q, a)
	if err != nil {
		return nil, &InputError{Code: utils.ErrInvalidRequest, Message: err.Error()}
	}
	if err := s.views.Save(ctx, adminID, next); err != nil {
		log.Error().Err(err).Int("admin_id", adminID).Msg("Failed to store list view")
	}
	return s.List(ctx, next)
}
