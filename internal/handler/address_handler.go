package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/geocode"
)

type AddressHandler struct {
	locations *service.LocationService
}

func NewAddressHandler(locations *service.LocationService) *AddressHandler {
	return &AddressHandler{locations: locations}
}

// List handles GET /v1/admin/addresses.
func (h *AddressHandler) List(c *gin.Context) {
	list, err := h.locations.ListAddresses(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Addresses retrieved", list)
}

// AddFromPlace handles POST /v1/admin/addresses/place. The body is the
// autocomplete place result.
func (h *AddressHandler) AddFromPlace(c *gin.Context) {
	var place geocode.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		badRequest(c, geocode.MsgSelectFromDropdown)
		return
	}
	list, err := h.locations.AddFromPlace(c.Request.Context(), adminID(c), place)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Address added successfully", list)
}

// AddFromCurrentLocation handles POST /v1/admin/addresses/current-location.
func (h *AddressHandler) AddFromCurrentLocation(c *gin.Context) {
	var req service.CurrentLocation
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	list, err := h.locations.AddFromCurrentLocation(c.Request.Context(), adminID(c), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusCreated, "Address added successfully", list)
}
