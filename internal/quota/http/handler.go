package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

// TierSource resolves the plan of a business.
type TierSource interface {
	PlanTier(ctx context.Context, businessID string) (quota.Tier, error)
}

type QuotaHandler struct {
	limiter quota.Limiter
	tiers   TierSource
	now     func() time.Time
}

func NewHandler(limiter quota.Limiter, tiers TierSource, now func() time.Time) *QuotaHandler {
	return &QuotaHandler{
		limiter: limiter,
		tiers:   tiers,
		now:     now,
	}
}

// Usage reports how much of its plan a business has used in the current window.
// Access Control: business owner (enforced by middleware).
func (h *QuotaHandler) Usage(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	tier, err := h.tiers.PlanTier(ctx, req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.limiter.Usage(ctx, req.ID, tier, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewUsageResponse(u))
}
