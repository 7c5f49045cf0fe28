package controller

import (
	"veritas-data-pipeline/internal/dto"
	"veritas-data-pipeline/internal/pkg/serverutils"
	"veritas-data-pipeline/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type searchController struct {
	service service.ISearchService
}

func NewSearchController(service service.ISearchService) ISearchController {
	return &searchController{service: service}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Post("", c.Search)
}

// Search accepts either query text or a precomputed query vector. Text wins
// when both are present.
func (c *searchController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	var (
		res *dto.SearchResponse
		err error
	)
	if req.Query != "" {
		res, err = c.service.SearchByText(ctx.Context(), &req)
	} else {
		res, err = c.service.SearchSimilar(ctx.Context(), &req)
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Search results", res))
}
