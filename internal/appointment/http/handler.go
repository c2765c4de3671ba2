package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/appointment-booking-backend/internal/appointment"
	"github.com/nekogravitycat/appointment-booking-backend/internal/auth"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/response"
)

type AppointmentHandler struct {
	service appointment.Service
}

func NewHandler(service appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// Create books a slot for a client. The appointment starts as pending.
func (h *AppointmentHandler) Create(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var body CreateAppointmentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	start, err := body.Start()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "date must be YYYY-MM-DD and start_time HH:MM"})
		return
	}

	a, err := h.service.Create(c.Request.Context(), appointment.CreateRequest{
		BusinessID:    uri.ID,
		ServiceID:     body.ServiceID,
		StartTime:     start,
		ClientName:    body.ClientName,
		ClientContact: body.ClientContact,
		ClientEmail:   body.ClientEmail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewAppointmentResponse(a))
}

// List returns the appointments of a business, paginated.
// Access Control: business owner (enforced by middleware).
func (h *AppointmentHandler) List(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var req ListAppointmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}
	req.Normalize()

	from, to, err := req.Range()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "from and to must be formatted as YYYY-MM-DD"})
		return
	}

	items, total, err := h.service.List(c.Request.Context(), appointment.Filter{
		BusinessID: uri.ID,
		Status:     req.Status,
		From:       from,
		To:         to,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortOrder:  strings.ToUpper(req.SortOrder),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]AppointmentResponse, len(items))
	for i, a := range items {
		resp[i] = NewAppointmentResponse(a)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(resp, req.Page, req.PageSize, total))
}

// Get returns a single appointment to the owner of its business.
func (h *AppointmentHandler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BindError(c, err)
		return
	}

	a, err := h.service.Get(c.Request.Context(), req.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// ChangeStatus moves an appointment through its lifecycle.
// Access Control: business owner.
func (h *AppointmentHandler) ChangeStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var body ChangeStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	a, err := h.service.ChangeStatus(c.Request.Context(), appointment.StatusChangeRequest{
		AppointmentID: uri.ID,
		Status:        strings.ToLower(strings.TrimSpace(body.Status)),
		ActorID:       auth.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAppointmentResponse(a))
}

// Lookup lets a client find their appointment with the code they were given.
func (h *AppointmentHandler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	a, err := h.service.Lookup(c.Request.Context(), req.BusinessID, req.Code, req.Contact)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewLookupResponse(a))
}
