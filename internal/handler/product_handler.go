package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/listing"
	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/productform"
	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
)

// ProductHandler serves the product list and the product form.
type ProductHandler struct {
	products      *service.ProductService
	listing       *service.ListingService
	maxImageBytes int64
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *service.ProductService, listing *service.ListingService, maxImageBytes int64) *ProductHandler {
	return &ProductHandler{products: products, listing: listing, maxImageBytes: maxImageBytes}
}

// List handles GET /v1/admin/products. The query is built from the URL and
// nothing is stored.
func (h *ProductHandler) List(c *gin.Context) {
	q, err := queryFromURL(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	list, err := h.listing.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Products retrieved", list, list.Query.Page, list.Query.Limit, list.Total)
}

func queryFromURL(c *gin.Context) (listing.Query, error) {
	q := listing.New()
	var err error
	if tab := c.Query("tab"); tab != "" {
		if q, err = q.WithTab(models.ProductType(tab)); err != nil {
			return q, err
		}
	}
	q = q.WithCategory(c.Query("categoryId")).
		WithSubcategory(c.Query("subcategoryId")).
		WithAttribute(c.Query("attributeKey"), c.Query("attributeValue"))

	if use, _ := strconv.ParseBool(c.Query("useLocation")); use {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return q, errors.New("lat and lng are required when useLocation is set")
		}
		p := models.NewGeoPoint(lng, lat)
		if !p.InRange() {
			return q, errors.New("coordinates must be within valid ranges")
		}
		q = q.WithLocation(true, &p)
	}
	if sort := c.Query("sort"); sort != "" {
		if q, err = q.WithSort(listing.SortOption(sort)); err != nil {
			return q, err
		}
	}
	return q.WithPage(queryInt(c, "page", listing.DefaultPage)).Normalize(), nil
}

// View handles GET /v1/admin/products/view.
func (h *ProductHandler) View(c *gin.Context) {
	list, err := h.listing.View(c.Request.Context(), adminID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Products retrieved", list, list.Query.Page, list.Query.Limit, list.Total)
}

// ApplyView handles PATCH /v1/admin/products/view.
func (h *ProductHandler) ApplyView(c *gin.Context) {
	var action listing.Action
	if err := c.ShouldBindJSON(&action); err != nil || action.Type == "" {
		badRequest(c, "Action is required")
		return
	}
	list, err := h.listing.ApplyView(c.Request.Context(), adminID(c), action)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Products retrieved", list, list.Query.Page, list.Query.Limit, list.Total)
}

// CreateDraft handles POST /v1/admin/products/drafts. An optional product
// in the body starts an edit of that listing.
func (h *ProductHandler) CreateDraft(c *gin.Context) {
	var req struct {
		Product *models.Product `json:"product"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}
	d, err := h.products.CreateDraft(c.Request.Context(), adminID(c), req.Product)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Draft created", d)
}

// GetDraft handles GET /v1/admin/products/drafts/:id.
func (h *ProductHandler) GetDraft(c *gin.Context) {
	d, err := h.products.GetDraft(c.Request.Context(), adminID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Draft retrieved", d)
}

// UpdateDraft handles PATCH /v1/admin/products/drafts/:id.
func (h *ProductHandler) UpdateDraft(c *gin.Context) {
	var req struct {
		Field string          `json:"field" binding:"required"`
		Value json.RawMessage `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Field is required")
		return
	}
	d, err := h.products.ApplyChange(c.Request.Context(), adminID(c), c.Param("id"), req.Field, req.Value)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Draft updated", d)
}

// DeleteDraft handles DELETE /v1/admin/products/drafts/:id.
func (h *ProductHandler) DeleteDraft(c *gin.Context) {
	if err := h.products.DeleteDraft(c.Request.Context(), adminID(c), c.Param("id")); err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Draft deleted", nil)
}

// Create handles POST /v1/admin/products.
func (h *ProductHandler) Create(c *gin.Context) {
	h.submit(c, "")
}

// Update handles PUT /v1/admin/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	h.submit(c, c.Param("id"))
}

// submit reads a multipart body: "draftId" or a "form" part holding the
// state JSON, plus any number of "images" files.
func (h *ProductHandler) submit(c *gin.Context, productID string) {
	mf, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Expected a multipart form")
		return
	}

	req := service.SubmitRequest{ProductID: productID, DraftID: first(mf.Value["draftId"])}
	if req.DraftID == "" {
		raw := first(mf.Value["form"])
		if raw == "" {
			badRequest(c, "Either draftId or form is required")
			return
		}
		var state productform.State
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			badRequest(c, "Invalid form JSON")
			return
		}
		state.Images = keepHosted(state.Images)
		req.State = &state
	}

	for _, fh := range mf.File[productform.ImagesPart] {
		f, err := readUpload(fh, h.maxImageBytes)
		if err != nil {
			badRequest(c, "Failed to read image "+fh.Filename)
			return
		}
		req.Uploads = append(req.Uploads, productform.Upload{
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Data:        f.Data,
		})
	}

	result, err := h.products.Submit(c.Request.Context(), adminID(c), req)
	switch {
	case errors.Is(err, utils.ErrValidationFailed):
		utils.ValidationError(c, result.Form.Errors, result.Form)
		return
	case err != nil:
		var data interface{}
		if result != nil {
			data = result.Form
		}
		respondError(c, err, data)
		return
	}

	status, message := http.StatusCreated, "Product created successfully"
	if productID != "" {
		status, message = http.StatusOK, "Product updated successfully"
	}
	utils.Success(c, status, message, result)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// keepHosted drops image entries that claim to be uploads; uploads only
// arrive as file parts.
func keepHosted(images []productform.Image) []productform.Image {
	out := make([]productform.Image, 0, len(images))
	for _, img := range images {
		if img.URL != "" {
			out = append(out, productform.Image{URL: img.URL})
		}
	}
	return out
}
