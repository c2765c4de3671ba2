package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/response"
)

type CatalogHandler struct {
	catalog catalog.Catalog
}

func NewHandler(c catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// GetBusiness returns the public profile and working hours of a business.
func (h *CatalogHandler) GetBusiness(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BindError(c, err)
		return
	}

	b, err := h.catalog.GetBusiness(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBusinessResponse(b))
}

// ListServices returns the bookable services of a business.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BindError(c, err)
		return
	}

	services, err := h.catalog.ListServices(c.Request.Context(), req.ID, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ServiceResponse, len(services))
	for i, s := range services {
		items[i] = NewServiceResponse(s)
	}

	c.JSON(http.StatusOK, response.NewListResponse(items))
}
