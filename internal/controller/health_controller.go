package controller

import (
	"veritas-data-pipeline/internal/pkg/serverutils"
	"veritas-data-pipeline/internal/service"
	"veritas-data-pipeline/pkg/ipfs"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Metrics(ctx *fiber.Ctx) error
	StorageStatus(ctx *fiber.Ctx) error
}

type healthController struct {
	metrics    service.IMetricsService
	ipfsClient *ipfs.Client
}

func NewHealthController(metrics service.IMetricsService, ipfsClient *ipfs.Client) IHealthController {
	return &healthController{
		metrics:    metrics,
		ipfsClient: ipfsClient,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ops/v1")
	h.Get("/health", c.Health)
	h.Get("/metrics", c.Metrics)
	h.Get("/storage", c.StorageStatus)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{"status": "healthy"}))
}

func (c *healthController) Metrics(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Pipeline metrics", c.metrics.Snapshot()))
}

func (c *healthController) StorageStatus(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Storage endpoint status", c.ipfsClient.GatewayStatus()))
}
