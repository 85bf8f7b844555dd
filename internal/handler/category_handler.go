package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
)

// maxIconBytes caps category icon uploads.
const maxIconBytes = 2 << 20

// CategoryHandler serves categories and subcategories.
type CategoryHandler struct {
	taxonomy *service.TaxonomyService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(taxonomy *service.TaxonomyService) *CategoryHandler {
	return &CategoryHandler{taxonomy: taxonomy}
}

type statusRequest struct {
	Status        models.Status `json:"status" binding:"required"`
	ParentID      string        `json:"parentId"`
	SubcategoryID string        `json:"subcategoryId"`
	Confirm       bool          `json:"confirm"`
}

// categoryForm reads the multipart create/update form. Fields that are not
// posted stay nil.
func categoryForm(c *gin.Context) (service.CategoryRequest, bool) {
	req := service.CategoryRequest{Name: c.PostForm("name")}
	var ok bool
	if req.IsActive, ok = formBool(c, "isActive"); !ok {
		badRequest(c, "isActive must be true or false")
		return req, false
	}
	if req.IsDisabled, ok = formBool(c, "isDisabled"); !ok {
		badRequest(c, "isDisabled must be true or false")
		return req, false
	}
	if v := c.PostForm("order"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "Order must be a number")
			return req, false
		}
		req.Order = &order
	}
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxIconBytes {
			badRequest(c, "Icon is too large")
			return req, false
		}
		icon, err := readUpload(fh, maxIconBytes)
		if err != nil {
			badRequest(c, "Failed to read icon")
			return req, false
		}
		req.Icon = icon
	}
	return req, true
}

// formBool returns nil when key is absent or empty. ok is false for a
// value that is not a boolean.
func formBool(c *gin.Context, key string) (*bool, bool) {
	v, present := c.GetPostForm(key)
	if !present || v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, false
	}
	return &b, true
}

// ListCategories handles GET /v1/admin/categories.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	list, err := h.taxonomy.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Categories retrieved", list)
}

// CreateCategory handles POST /v1/admin/categories.
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	req, ok := categoryForm(c)
	if !ok {
		return
	}
	list, err := h.taxonomy.CreateCategory(c.Request.Context(), adminID(c), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Category created successfully", list)
}

// UpdateCategory handles PUT /v1/admin/categories/:id.
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	req, ok := categoryForm(c)
	if !ok {
		return
	}
	list, err := h.taxonomy.UpdateCategory(c.Request.Context(), adminID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Category updated successfully", list)
}

// SetCategoryStatus handles POST /v1/admin/categories/:id/status.
func (h *CategoryHandler) SetCategoryStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	list, err := h.taxonomy.SetCategoryStatus(c.Request.Context(), adminID(c), c.Param("id"), req.Status, req.Confirm)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Category status updated", list)
}

// ListSubcategories handles GET /v1/admin/categories/:id/subcategories.
func (h *CategoryHandler) ListSubcategories(c *gin.Context) {
	list, err := h.taxonomy.ListSubcategories(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Subcategories retrieved", list)
}

// CreateSubcategory handles POST /v1/admin/categories/:id/subcategories.
func (h *CategoryHandler) CreateSubcategory(c *gin.Context) {
	req, ok := categoryForm(c)
	if !ok {
		return
	}
	list, err := h.taxonomy.CreateSubcategory(c.Request.Context(), adminID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Subcategory created successfully", list)
}

// UpdateSubcategory handles PUT /v1/admin/subcategories/:id.
func (h *CategoryHandler) UpdateSubcategory(c *gin.Context) {
	req, ok := categoryForm(c)
	if !ok {
		return
	}
	list, err := h.taxonomy.UpdateSubcategory(c.Request.Context(), adminID(c), c.Param("id"), c.PostForm("parentId"), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Subcategory updated successfully", list)
}

// SetSubcategoryStatus handles POST /v1/admin/subcategories/:id/status.
func (h *CategoryHandler) SetSubcategoryStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	list, err := h.taxonomy.SetSubcategoryStatus(c.Request.Context(), adminID(c), c.Param("id"), req.ParentID, req.Status, req.Confirm)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Subcategory status updated", list)
}
