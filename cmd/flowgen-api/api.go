// Package main provides the Flowgen API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowgen/pkg/metrics"
	"github.com/dukex/flowgen/pkg/services"
	"github.com/dukex/flowgen/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger       *slog.Logger
	graphService *services.Graphs
	metrics      *metrics.Metrics
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	graphService *services.Graphs,
	metrics *metrics.Metrics,
) *API {
	return &API{
		logger:       logger,
		graphService: graphService,
		metrics:      metrics,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.graphService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))
	app.Use(web.RequestLogger(a.logger))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowgen API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/templates", handlers.GetTemplates)

	if a.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))
	}

	app.Post("/steps/parse", handlers.ParseSteps)

	g := app.Group("/graphs")
	g.Get("/", handlers.GetGraphs)
	g.Post("/generate", handlers.GenerateGraph)
	g.Get("/:id", handlers.GetGraph)
	g.Delete("/:id", handlers.DeleteGraph)
	g.Get("/:id/diagram", handlers.GetGraphDiagram)
	g.Get("/:id/steps", handlers.GetGraphSteps)
	g.Get("/:id/n8n", handlers.GetGraphN8N)

	r := app.Group("/render")
	r.Post("/diagram", handlers.RenderDiagram)
	r.Post("/steps", handlers.RenderSteps)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
