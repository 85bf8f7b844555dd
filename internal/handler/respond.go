package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/cache"
	"github.com/GTDGit/market_admin/internal/middleware"
	"github.com/GTDGit/market_admin/internal/service"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// respondError maps a service error onto the response envelope. data, when
// not nil, is echoed back so the console can keep rendering.
func respondError(c *gin.Context, err error, data interface{}) {
	var (
		reqErr     *service.RequestError
		inputErr   *service.InputError
		confirmErr *service.ConfirmError
	)
	switch {
	case errors.As(err, &reqErr):
		utils.ErrorWithData(c, reqErr.HTTPStatus(), utils.ErrUpstream.Error(), reqErr.Message, data)
	case errors.As(err, &confirmErr):
		utils.Error(c, http.StatusConflict, utils.ErrConfirmationRequired.Error(), confirmErr.Prompt)
	case errors.As(err, &inputErr):
		status := http.StatusBadRequest
		if errors.Is(err, utils.ErrLocationUnavailable) {
			status = http.StatusUnprocessableEntity
		}
		utils.Error(c, status, inputErr.Code.Error(), inputErr.Message)
	case errors.Is(err, cache.ErrDraftNotFound):
		utils.Error(c, http.StatusNotFound, cache.ErrDraftNotFound.Error(), "Draft not found or expired")
	case errors.Is(err, utils.ErrSubmitInProgress):
		utils.Error(c, http.StatusConflict, utils.ErrSubmitInProgress.Error(), "A submission is already in progress")
	case errors.Is(err, utils.ErrUpstream):
		log.Error().Err(err).Msg("Upstream failure")
		utils.Error(c, http.StatusBadGateway, utils.ErrUpstream.Error(), "Upstream service unavailable")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func badRequest(c *gin.Context, message string) {
	utils.Error(c, http.StatusBadRequest, utils.ErrInvalidRequest.Error(), message)
}

func adminID(c *gin.Context) int {
	return c.GetInt(middleware.ContextAdminID)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// readUpload loads one multipart file into memory. The size cap applies to
// the file, not the request.
func readUpload(fh *multipart.FileHeader, maxBytes int64) (*marketplace.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := io.Reader(f)
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &marketplace.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
