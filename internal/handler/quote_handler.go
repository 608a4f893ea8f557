package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/application"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/response"
)

// QuoteHandler serves waypoint reference data and trip quotes.
type QuoteHandler struct {
	pricing   *application.PricingService
	waypoints *application.WaypointService
}

func NewQuoteHandler(pricing *application.PricingService, waypoints *application.WaypointService) *QuoteHandler {
	return &QuoteHandler{pricing: pricing, waypoints: waypoints}
}

func (h *QuoteHandler) RegisterRoutes(r *gin.RouterGroup) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/waypoints", h.ListWaypoints)
		v1.POST("/quotes", h.Quote)
	}
}

// ListWaypoints handles GET /api/v1/waypoints.
func (h *QuoteHandler) ListWaypoints(c *gin.Context) {
	waypoints, err := h.waypoints.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, waypoints)
}

// Quote handles POST /api/v1/quotes.
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	quote, err := h.pricing.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, quote)
}
