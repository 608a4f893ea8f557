package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/application"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/response"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
	pricing *application.PricingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService, pricingSvc *application.PricingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service, pricing: pricingSvc}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/:id/notifications", h.NotificationLogs)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/pricing", h.GetPricing)
		admin.PUT("/pricing", h.UpdatePricing)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// NotificationLogs handles GET /api/v1/admin/bookings/:id/notifications.
func (h *AdminBookingHandler) NotificationLogs(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	entries, err := h.service.GetNotificationLogs(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}

// GetPricing handles GET /api/v1/admin/pricing.
func (h *AdminBookingHandler) GetPricing(c *gin.Context) {
	settings, err := h.pricing.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdatePricing handles PUT /api/v1/admin/pricing.
func (h *AdminBookingHandler) UpdatePricing(c *gin.Context) {
	var req pricing.GlobalPricingSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings, err := h.pricing.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}
