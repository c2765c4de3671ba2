package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nekogravitycat/appointment-booking-backend/internal/auth"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/response"
)

// RequireBusinessOwner ensures the authenticated user owns the business named
// by the :id path parameter.
// It MUST be used after auth.AuthRequired middleware.
func RequireBusinessOwner(c catalog.Catalog) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := auth.GetUserID(ctx)
		if userID == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "unauthorized"})
			return
		}

		businessID := ctx.Param("id")
		if _, err := uuid.Parse(businessID); err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid business id"})
			return
		}

		ok, err := c.IsOwner(ctx.Request.Context(), businessID, userID)
		if err != nil {
			response.Error(ctx, err)
			ctx.Abort()
			return
		}
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{Error: "forbidden: business owner access required"})
			return
		}

		ctx.Next()
	}
}
