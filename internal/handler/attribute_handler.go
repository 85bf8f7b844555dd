package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
)

// AttributeHandler serves attribute keys and values of a subcategory.
type AttributeHandler struct {
	taxonomy *service.TaxonomyService
}

func NewAttributeHandler(taxonomy *service.TaxonomyService) *AttributeHandler {
	return &AttributeHandler{taxonomy: taxonomy}
}

type valueRequest struct {
	SubcategoryID string `json:"subcategoryId" binding:"required"`
	Value         string `json:"value" binding:"required"`
}

// ListKeys handles GET /v1/admin/subcategories/:id/attributes.
func (h *AttributeHandler) ListKeys(c *gin.Context) {
	keys, err := h.taxonomy.ListAttributeKeys(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Attributes retrieved", keys)
}

// CreateKey handles POST /v1/admin/subcategories/:id/attributes.
func (h *AttributeHandler) CreateKey(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Order      int    `json:"order"`
		IsRequired bool   `json:"isRequired"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name is required")
		return
	}
	keys, err := h.taxonomy.CreateAttributeKey(c.Request.Context(), adminID(c), c.Param("id"), service.AttributeKeyRequest{
		Name:       req.Name,
		Order:      req.Order,
		IsRequired: req.IsRequired,
	})
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Attribute key created successfully", keys)
}

// UpdateKey handles PUT /v1/admin/attributes/:id.
func (h *AttributeHandler) UpdateKey(c *gin.Context) {
	var req struct {
		SubcategoryID string `json:"subcategoryId" binding:"required"`
		Name          string `json:"name" binding:"required"`
		Order         *int   `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Subcategory and name are required")
		return
	}
	keys, err := h.taxonomy.UpdateAttributeKey(c.Request.Context(), adminID(c), c.Param("id"), req.SubcategoryID, req.Name, req.Order)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Attribute key updated successfully", keys)
}

// SetKeyStatus handles POST /v1/admin/attributes/:id/status.
func (h *AttributeHandler) SetKeyStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}
	keys, err := h.taxonomy.SetAttributeKeyStatus(c.Request.Context(), adminID(c), c.Param("id"), req.SubcategoryID, req.Status, req.Confirm)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Attribute key status updated", keys)
}

// AddValue handles POST /v1/admin/attributes/:id/values.
func (h *AttributeHandler) AddValue(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Subcategory and value are required")
		return
	}
	keys, err := h.taxonomy.AddAttributeValue(c.Request.Context(), adminID(c), c.Param("id"), req.SubcategoryID, req.Value)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Value added successfully", keys)
}

// UpdateValue handles PUT /v1/admin/attribute-values/:id.
func (h *AttributeHandler) UpdateValue(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Subcategory and value are required")
		return
	}
	keys, err := h.taxonomy.UpdateAttributeValue(c.Request.Context(), adminID(c), c.Param("id"), req.SubcategoryID, req.Value)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Value updated successfully", keys)
}

// DeleteValue handles DELETE /v1/admin/attribute-values/:id.
func (h *AttributeHandler) DeleteValue(c *gin.Context) {
	var req struct {
		SubcategoryID string `json:"subcategoryId" binding:"required"`
		Confirm       bool   `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Subcategory is required")
		return
	}
	keys, err := h.taxonomy.DeleteAttributeValue(c.Request.Context(), adminID(c), c.Param("id"), req.SubcategoryID, req.Confirm)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Value deleted successfully", keys)
}
