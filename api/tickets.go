package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/metrics"
	"github.com/mydummyticket/mdt-backend/internal/repository"
	"github.com/mydummyticket/mdt-backend/internal/service/tickets"
)

type TicketHandler struct {
	service   tickets.TicketUseCase
	jwtSecret string
}

func NewTicketHandler(service tickets.TicketUseCase, jwtSecret string) *TicketHandler {
	return &TicketHandler{service: service, jwtSecret: jwtSecret}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/checkout", RequireSession(), h.checkout)
	router.GET("/:sessionId", RequireSession(), h.get)

	admin := router.Group("", Protect(h.jwtSecret), RestrictTo("admin", "agent"))
	admin.GET("", h.list)
	admin.PATCH("/:sessionId/status", h.updateStatus)
	router.DELETE("/:sessionId", Protect(h.jwtSecret), RestrictTo("admin"), h.delete)
}

func (h *TicketHandler) create(c *gin.Context) {
	var input tickets.CreateTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.service.CreateRequest(c.Request.Context(), input)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": ticket})
}

func (h *TicketHandler) checkout(c *gin.Context) {
	sessionID := c.GetString("sessionID")
	url, err := h.service.CreateCheckoutURL(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "no ticket request found for this session")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "could not create checkout session")
		return
	}
	metrics.CheckoutSessions.WithLabelValues(string(domain.ProductTicket)).Inc()
	c.JSON(http.StatusOK, gin.H{"status": "success", "url": url})
}

func (h *TicketHandler) get(c *gin.Context) {
	sessionID := c.Param("sessionId")
	ticket, err := h.service.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "ticket not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "could not load ticket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": ticket})
}

func (h *TicketHandler) list(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), tickets.ListInput{
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 10),
		Search:        c.Query("search"),
		CreatedWithin: c.Query("createdWithin"),
		PaymentStatus: c.Query("paymentStatus"),
		OrderStatus:   c.Query("orderStatus"),
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "could not list tickets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": items, "pagination": pagination})
}

type updateStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
	HandledBy   string `json:"handledBy"`
}

func (h *TicketHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.service.UpdateOrderStatus(c.Request.Context(),
		c.Param("sessionId"), domain.OrderStatus(req.OrderStatus), req.HandledBy)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "ticket not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "could not update order status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": ticket})
}

func (h *TicketHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("sessionId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "ticket not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "could not delete ticket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
