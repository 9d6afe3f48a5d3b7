package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/application/usecase"
	"github.com/odontoflow/odontoflow/gateway/internal/domain/repository"
	"github.com/odontoflow/odontoflow/gateway/internal/interfaces/http/handlers"
)

// Server wraps the gin engine in a stoppable http.Server.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config holds the listener settings.
type Config struct {
	Host    string
	Port    int
	Mode    string // debug, release
	Service string
	Version string
}

// Deps collects everything the routes need.
type Deps struct {
	Triage       *usecase.TriageUseCase
	Patients     repository.PatientRepository
	Interactions repository.InteractionRepository
	Agenda       *usecase.AgendaUseCase
	Monitor      handlers.Monitor
	Metrics      http.Handler // Prometheus text endpoint, optional
	WS           http.Handler // websocket feed upgrade, optional
}

// NewServer builds the router and wires all handlers.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))

	triageHandler := handlers.NewTriageHandler(deps.Triage, logger)
	patientHandler := handlers.NewPatientHandler(deps.Patients, deps.Interactions, logger)
	agendaHandler := handlers.NewAgendaHandler(deps.Agenda, logger)
	statsHandler := handlers.NewStatsHandler(deps.Monitor, logger)

	setupRoutes(router, cfg, triageHandler, patientHandler, agendaHandler, statsHandler, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return &Server{
		server: server,
		logger: logger,
	}
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(
	router *gin.Engine,
	cfg Config,
	triageHandler *handlers.TriageHandler,
	patientHandler *handlers.PatientHandler,
	agendaHandler *handlers.AgendaHandler,
	statsHandler *handlers.StatsHandler,
	deps Deps,
) {
	// Liveness probe for the WhatsApp connector. Constant payload,
	// never touches storage.
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "online",
			"service": cfg.Service,
			"version": cfg.Version,
		})
	})

	router.POST("/triage", triageHandler.Triage)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/patients", patientHandler.ListPatients)
		v1.GET("/patients/:id", patientHandler.GetPatient)

		v1.GET("/agenda/slots", agendaHandler.ListFreeSlots)
		v1.POST("/appointments", agendaHandler.BookAppointment)
		v1.POST("/appointments/:id/cancel", agendaHandler.CancelAppointment)

		v1.GET("/stats", statsHandler.GetStats)
	}

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	if deps.WS != nil {
		router.GET("/ws", gin.WrapH(deps.WS))
	}
}

// ginLogger logs one structured line per request.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
