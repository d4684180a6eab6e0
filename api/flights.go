package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/metrics"
	"github.com/mydummyticket/mdt-backend/internal/service/flights"
)

type FlightHandler struct {
	service   flights.FlightUseCase
	jwtSecret string
}

func NewFlightHandler(service flights.FlightUseCase, jwtSecret string) *FlightHandler {
	return &FlightHandler{service: service, jwtSecret: jwtSecret}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.search)
	router.POST("/airlines/:code", Protect(h.jwtSecret), RestrictTo("admin"), h.addAirline)
}

func (h *FlightHandler) search(c *gin.Context) {
	var criteria domain.SearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	offers, err := h.service.Search(c.Request.Context(), criteria)
	if err != nil {
		switch {
		case errors.Is(err, flights.ErrMissingCriteria):
			metrics.FlightSearches.WithLabelValues("error").Inc()
			errorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, flights.ErrNoFlights):
			metrics.FlightSearches.WithLabelValues("miss").Inc()
			errorResponse(c, http.StatusNotFound, err.Error())
		default:
			metrics.FlightSearches.WithLabelValues("error").Inc()
			errorResponse(c, http.StatusBadGateway, "flight search failed")
		}
		return
	}

	metrics.FlightSearches.WithLabelValues("hit").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": offers})
}

func (h *FlightHandler) addAirline(c *gin.Context) {
	airline, err := h.service.AddAirline(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, flights.ErrAirlineExists):
			errorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, flights.ErrAirlineNotFound):
			errorResponse(c, http.StatusNotFound, err.Error())
		default:
			errorResponse(c, http.StatusBadGateway, "could not fetch airline data")
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": airline})
}
