package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/apperror"
	"github.com/fekuna/omnipos-storefront/internal/auth"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// RegisterRoutes mounts the shopper routes on r and the back-office ones on
// admin, which the caller guards.
func (h *OrderHandler) RegisterRoutes(r gin.IRouter, admin gin.IRouter) {
	r.GET("/orders/:id/confirmation", h.Confirmation)
	admin.GET("/orders/export.xlsx", h.Export)
}

func (h *OrderHandler) Confirmation(c *gin.Context) {
	ctx := c.Request.Context()
	id := auth.FromContext(ctx)

	var (
		o   *model.Order
		err error
	)
	if id.IsStaff {
		o, err = h.uc.GetOrder(ctx, c.Param("id"))
	} else {
		o, err = h.uc.GetOwnedOrder(ctx, c.Param("id"), id.Owner())
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Export(c *gin.Context) {
	filters := &dto.ExportFilters{Status: model.OrderStatus(c.Query("status"))}
	if filters.Status != "" && !filters.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		filters.StartDate = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filters.EndDate = &end
	}

	var buf bytes.Buffer
	if err := h.uc.Export(c.Request.Context(), filters, &buf); err != nil {
		h.logger.Error("order export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export orders"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *OrderHandler) renderError(c *gin.Context, err error) {
	code := apperror.HTTPStatus(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("order request failed", zap.Error(err))
	}
	c.JSON(code, gin.H{"error": apperror.Localize(c.GetHeader("Accept-Language"), err)})
}
