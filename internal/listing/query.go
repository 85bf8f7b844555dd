// Package listing models the product list screen state: type tab,
// pagination, filters and sort, and turns it into upstream query parameters.
package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/GTDGit/market_admin/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var (
	ErrInvalidTab  = errors.New("invalid product type tab")
	ErrInvalidSort = errors.New("invalid sort option")
)

// SortOption is one entry of the fixed sort menu. The zero value means
// "no sort" and leaves ordering to the marketplace.
type SortOption string

const (
	SortNone         SortOption = ""
	SortPriceAsc     SortOption = "PRICE_ASC"
	SortPriceDesc    SortOption = "PRICE_DESC"
	SortCreatedDesc  SortOption = "CREATED_DESC"
	SortCreatedAsc   SortOption = "CREATED_ASC"
	SortDistanceAsc  SortOption = "DISTANCE_ASC"
	SortDistanceDesc SortOption = "DISTANCE_DESC"
)

type sortSpec struct {
	Field string `json:"field"`
	Order string `json:"order"`
	Label string `json:"label"`
}

var sortSpecs = map[SortOption]sortSpec{
	SortPriceAsc:     {"price", "asc", "Price: Low to High"},
	SortPriceDesc:    {"price", "desc", "Price: High to Low"},
	SortCreatedDesc:  {"createdAt", "desc", "Newest First"},
	SortCreatedAsc:   {"createdAt", "asc", "Oldest First"},
	SortDistanceAsc:  {"distance", "asc", "Nearest First"},
	SortDistanceDesc: {"distance", "desc", "Farthest First"},
}

// SortOptions lists the menu in display order.
var SortOptions = []SortOption{
	SortPriceAsc, SortPriceDesc, SortCreatedDesc, SortCreatedAsc, SortDistanceAsc, SortDistanceDesc,
}

// Valid reports whether o is SortNone or a menu entry.
func (o SortOption) Valid() bool {
	if o == SortNone {
		return true
	}
	_, ok := sortSpecs[o]
	return ok
}

// Label is the menu text of o.
func (o SortOption) Label() string { return sortSpecs[o].Label }

// Filter narrows the list. Empty strings mean "all".
type Filter struct {
	CategoryID     string           `json:"categoryId"`
	SubcategoryID  string           `json:"subcategoryId"`
	AttributeKey   string           `json:"attributeKey"`
	AttributeValue string           `json:"attributeValue"`
	UseLocation    bool             `json:"useLocation"`
	UserLocation   *models.GeoPoint `json:"userLocation"`
}

// Query is the full list screen state.
type Query struct {
	Tab    models.ProductType `json:"tab"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
	Filter Filter             `json:"filter"`
	Sort   SortOption         `json:"sort"`
}

// New returns the initial state: SELL tab, first page, no filters.
func New() Query {
	return Query{Tab: models.ProductTypeSell, Page: DefaultPage, Limit: DefaultLimit}
}

// WithTab switches the type tab and returns to the first page.
func (q Query) WithTab(t models.ProductType) (Query, error) {
	if !t.Valid() {
		return q, fmt.Errorf("%w: %s", ErrInvalidTab, t)
	}
	q.Tab = t
	q.Page = DefaultPage
	return q, nil
}

// WithPage moves to page p. Pages below 1 clamp to 1.
func (q Query) WithPage(p int) Query {
	if p < DefaultPage {
		p = DefaultPage
	}
	q.Page = p
	return q
}

// WithCategory sets the category filter and clears the filters scoped below it.
func (q Query) WithCategory(id string) Query {
	if id != q.Filter.CategoryID {
		q.Filter.SubcategoryID = ""
		q.Filter.AttributeKey = ""
		q.Filter.AttributeValue = ""
	}
	q.Filter.CategoryID = id
	q.Page = DefaultPage
	return q
}

// WithSubcategory sets the subcategory filter and clears the attribute filter.
func (q Query) WithSubcategory(id string) Query {
	if id != q.Filter.SubcategoryID {
		q.Filter.AttributeKey = ""
		q.Filter.AttributeValue = ""
	}
	q.Filter.SubcategoryID = id
	q.Page = DefaultPage
	return q
}

// WithAttribute sets the attribute key/value filter. A new key drops a value
// chosen for the previous key.
func (q Query) WithAttribute(key, value string) Query {
	if key != q.Filter.AttributeKey && value == q.Filter.AttributeValue {
		value = ""
	}
	q.Filter.AttributeKey = key
	q.Filter.AttributeValue = value
	q.Page = DefaultPage
	return q
}

// WithLocation toggles distance filtering. A nil point keeps the last known
// position.
func (q Query) WithLocation(enabled bool, at *models.GeoPoint) Query {
	q.Filter.UseLocation = enabled
	if at != nil {
		p := at.Clone()
		q.Filter.UserLocation = &p
	}
	q.Page = DefaultPage
	return q
}

// WithoutLocation is the state after the device position could not be read.
func (q Query) WithoutLocation() Query {
	q.Filter.UseLocation = false
	q.Filter.UserLocation = nil
	q.Page = DefaultPage
	return q
}

// WithSort selects a sort option and returns to the first page.
func (q Query) WithSort(o SortOption) (Query, error) {
	if !o.Valid() {
		return q, fmt.Errorf("%w: %s", ErrInvalidSort, o)
	}
	q.Sort = o
	q.Page = DefaultPage
	return q, nil
}

// Cleared drops every filter and the sort. The tab is kept.
func (q Query) Cleared() Query {
	q.Filter = Filter{}
	q.Sort = SortNone
	q.Page = DefaultPage
	return q
}

// Normalize repairs a query loaded from storage or a request.
func (q Query) Normalize() Query {
	if !q.Tab.Valid() {
		q.Tab = models.ProductTypeSell
	}
	if q.Page < DefaultPage {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if !q.Sort.Valid() {
		q.Sort = SortNone
	}
	return q
}

// Params renders the upstream query string. Only non-empty filters are
// included; the attribute filter needs both key and value and the location
// filter needs a known position.
func (q Query) Params() url.Values {
	v := url.Values{}
	v.Set("type", string(q.Tab))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))

	f := q.Filter
	if f.CategoryID != "" {
		v.Set("categoryId", f.CategoryID)
	}
	if f.SubcategoryID != "" {
		v.Set("subcategoryId", f.SubcategoryID)
	}
	if f.AttributeKey != "" && f.AttributeValue != "" {
		b, _ := json.Marshal([]models.Attribute{{Key: f.AttributeKey, Value: f.AttributeValue}})
		v.Set("attributes", string(b))
	}
	if f.UseLocation && f.UserLocation != nil {
		b, _ := json.Marshal(f.UserLocation)
		v.Set("location", string(b))
	}
	if spec, ok := sortSpecs[q.Sort]; ok {
		v.Set("sortBy", spec.Field)
		v.Set("sortOrder", spec.Order)
	}
	return v
}

// TotalPages returns the page count for total results.
func (q Query) TotalPages(total int) int {
	if total <= 0 || q.Limit <= 0 {
		return 0
	}
	return (total + q.Limit - 1) / q.Limit
}
