package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mydummyticket/mdt-backend/api"
	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/reconcile"
	"github.com/mydummyticket/mdt-backend/internal/service/flights"
	"github.com/mydummyticket/mdt-backend/internal/service/insurance"
	"github.com/mydummyticket/mdt-backend/internal/service/tickets"
)

type Services struct {
	Tickets    tickets.TicketUseCase
	Insurance  insurance.InsuranceUseCase
	Flights    flights.FlightUseCase
	Reconciler reconcile.UseCase
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services) error {
	router := newRouter(cfg, svc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhookHandler := api.NewWebhookHandler(svc.Reconciler)

	ticketGroup := router.Group("/api/ticket")
	webhookHandler.Register(ticketGroup)
	api.NewTicketHandler(svc.Tickets, cfg.Auth.JWTSecret).Register(ticketGroup)

	insuranceGroup := router.Group("/api/insurance")
	webhookHandler.Register(insuranceGroup)
	api.NewInsuranceHandler(svc.Insurance, cfg.Auth.JWTSecret).Register(insuranceGroup)

	flightGroup := router.Group("/api/flights")
	api.NewFlightHandler(svc.Flights, cfg.Auth.JWTSecret).Register(flightGroup)

	return router
}
