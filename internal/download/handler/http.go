package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/download"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DownloadHandler struct {
	uc     download.UseCase
	logger logger.ZapLogger
}

func NewDownloadHandler(uc download.UseCase, log logger.ZapLogger) *DownloadHandler {
	return &DownloadHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *DownloadHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/downloads/:token", h.Download)
}

// Download streams the file as an attachment or redirects to the external
// URL. Expired or exhausted links answer 410, unknown ones 404.
func (h *DownloadHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	caller := auth.FromContext(ctx)

	delivery, err := h.uc.Redeem(ctx, c.Param("token"), caller.Owner())
	if err != nil {
		code := apperror.HTTPStatus(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("failed to redeem download", zap.Error(err))
		}
		c.JSON(code, gin.H{"error": apperror.Localize(c.GetHeader("Accept-Language"), err)})
		return
	}

	if delivery.RedirectURL != "" {
		c.Redirect(http.StatusFound, delivery.RedirectURL)
		return
	}
	c.FileAttachment(delivery.FilePath, delivery.FileName)
}
