package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/medrecords/records-api/docs"
	"github.com/medrecords/records-api/internal/api/handler"
	"github.com/medrecords/records-api/internal/api/middleware"
	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Extractor      ports.TextExtractor
	Accounts       ports.AccountService
	PatientRecords ports.PatientRecordService
	Prescriptions  ports.PrescriptionService
	Health         map[string]handler.Pinger

	JWTSecret     string
	MaxImageBytes int64
	Log           zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	registerer, gatherer := prometheus.Registerer(prometheus.DefaultRegisterer), prometheus.Gatherer(prometheus.DefaultGatherer)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "records_http",
		Registerer: registerer,
	}))
	if deps.MaxImageBytes > 0 {
		// Multipart framing on top of the largest accepted image.
		e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dK", deps.MaxImageBytes/1024+64)))
	}

	// --- Handlers ---
	ocrHandler := handler.NewOCRHandler(deps.Extractor, deps.MaxImageBytes)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	recordHandler := handler.NewPatientRecordHandler(deps.PatientRecords)
	prescriptionHandler := handler.NewPrescriptionHandler(deps.Prescriptions, deps.MaxImageBytes)
	healthHandler := handler.NewHealthHandler(deps.Health)

	// --- Public routes ---
	e.POST("/ocr", ocrHandler.Extract)
	e.POST("/auth/register", accountHandler.Register)
	e.POST("/auth/login", accountHandler.Login)

	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))
	doctorOnly := middleware.RBAC(domain.RoleDoctor)

	v1.GET("/accounts/me", accountHandler.Me)
	v1.DELETE("/accounts/:id", accountHandler.Delete)

	records := v1.Group("/patient-records", doctorOnly)
	records.POST("", recordHandler.Admit)
	records.GET("", recordHandler.List)
	records.GET("/:id", recordHandler.Get)

	v1.POST("/prescriptions", prescriptionHandler.File, doctorOnly)
	v1.GET("/prescriptions", prescriptionHandler.List)
	v1.GET("/prescriptions/:id", prescriptionHandler.Get)
	v1.POST("/prescriptions/:id/process", prescriptionHandler.Process, doctorOnly)

	return e
}
