package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/metrics"
	"github.com/mydummyticket/mdt-backend/internal/repository"
	"github.com/mydummyticket/mdt-backend/internal/service/insurance"
)

type InsuranceHandler struct {
	service   insurance.InsuranceUseCase
	jwtSecret string
}

func NewInsuranceHandler(service insurance.InsuranceUseCase, jwtSecret string) *InsuranceHandler {
	return &InsuranceHandler{service: service, jwtSecret: jwtSecret}
}

func (h *InsuranceHandler) Register(router *gin.RouterGroup) {
	router.POST("/quote", h.quote)
	router.POST("/finalize", h.finalize)
	router.GET("/nationalities", h.nationalities)
	router.GET("/download/:policyId/:index", h.download)
	router.GET("/:sessionId", RequireSession(), h.get)

	admin := router.Group("", Protect(h.jwtSecret), RestrictTo("admin", "agent"))
	admin.GET("", h.list)
	admin.POST("/nationalities", h.refreshNationalities)
	router.DELETE("/:sessionId", Protect(h.jwtSecret), RestrictTo("admin"), h.delete)
}

func (h *InsuranceHandler) quote(c *gin.Context) {
	var form insurance.QuoteForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.GetQuotes(c.Request.Context(), form)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": result})
}

func (h *InsuranceHandler) finalize(c *gin.Context) {
	var form insurance.ApplicationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.service.Finalize(c.Request.Context(), form)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	metrics.CheckoutSessions.WithLabelValues(string(domain.ProductInsurance)).Inc()
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": out})
}

func (h *InsuranceHandler) nationalities(c *gin.Context) {
	nationalities, err := h.service.Nationalities(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "could not load nationalities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": nationalities})
}

func (h *InsuranceHandler) refreshNationalities(c *gin.Context) {
	nationalities, err := h.service.RefreshNationalities(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "could not refresh nationalities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": nationalities})
}

func (h *InsuranceHandler) download(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "document index must be a number")
		return
	}

	url, err := h.service.DownloadDocument(c.Request.Context(), c.Param("policyId"), index)
	if err != nil {
		if errors.Is(err, insurance.ErrDocumentNotFound) {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusBadGateway, "could not fetch policy documents")
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *InsuranceHandler) get(c *gin.Context) {
	app, err := h.service.GetBySessionID(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "insurance application not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "could not load insurance application")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": app})
}

func (h *InsuranceHandler) list(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), insurance.ListInput{
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 10),
		Search:        c.Query("search"),
		CreatedWithin: c.Query("createdWithin"),
		PaymentStatus: c.Query("paymentStatus"),
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "could not list insurance applications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": items, "pagination": pagination})
}

func (h *InsuranceHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("sessionId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "insurance application not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "could not delete insurance application")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
