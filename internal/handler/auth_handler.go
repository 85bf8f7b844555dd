package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/market_admin/internal/middleware"
	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
)

type AuthHandler struct {
	authService *service.AdminAuthService
	limiter     *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(authService *service.AdminAuthService, limiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ip := c.ClientIP()
	if h.limiter.Blocked(ip) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many failed login attempts, try again later")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, utils.ErrInvalidCredentials):
		h.limiter.Fail(ip)
		utils.Error(c, http.StatusUnauthorized, err.Error(), "Invalid email or password")
		return
	case errors.Is(err, utils.ErrAccountDisabled):
		h.limiter.Fail(ip)
		utils.Error(c, http.StatusForbidden, err.Error(), "Account is inactive")
		return
	case err != nil:
		respondError(c, err, nil)
		return
	}

	h.limiter.Reset(ip)
	utils.Success(c, http.StatusOK, "Login successful", result)
}

// SetMarketplaceToken stores the bearer token used for the admin's marketplace calls.
func (h *AuthHandler) SetMarketplaceToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Token is required")
		return
	}
	if err := h.authService.SetMarketplaceToken(c.Request.Context(), adminID(c), req.Token); err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Marketplace session saved", nil)
}

func (h *AuthHandler) ClearMarketplaceToken(c *gin.Context) {
	if err := h.authService.ClearMarketplaceToken(c.Request.Context(), adminID(c)); err != nil {
		respondError(c, err, nil)
		return
	}
	utils.Success(c, http.StatusOK, "Marketplace session cleared", nil)
}
