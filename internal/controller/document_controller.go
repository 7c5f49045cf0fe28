package controller

import (
	"io"
	"mime/multipart"

	"veritas-data-pipeline/internal/dto"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/pkg/serverutils"
	"veritas-data-pipeline/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	UploadBatch(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IIngestionService
}

func NewDocumentController(service service.IIngestionService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Get("", c.GetAll)
	h.Post("", c.Upload)
	h.Post("/batch", c.UploadBatch)
	h.Get(":id/status", c.Status)
	h.Get(":id/content", c.Download)
	h.Delete(":id", c.Delete)
}

func readUpload(fileHeader *multipart.FileHeader) (*dto.IngestDocumentRequest, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, apperror.Validation("failed to open uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, apperror.Validation("failed to read uploaded file")
	}

	return &dto.IngestDocumentRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Validation("multipart field 'file' is required")
	}

	req, err := readUpload(fileHeader)
	if err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.Context(), req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document accepted", res))
}

func (c *documentController) UploadBatch(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return apperror.Validation("multipart form is required")
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return apperror.Validation("multipart field 'files' is required")
	}

	reqs := make([]dto.IngestDocumentRequest, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		req, err := readUpload(fh)
		if err != nil {
			return err
		}
		reqs = append(reqs, *req)
	}

	res, err := c.service.SubmitBatch(ctx.Context(), reqs)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Batch accepted", res))
}

func (c *documentController) Status(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Validation("invalid document id")
	}

	res, err := c.service.GetStatus(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document status", res))
}

func (c *documentController) Download(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Validation("invalid document id")
	}

	content, mimeType, err := c.service.GetContent(ctx.Context(), id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, mimeType)
	return ctx.Send(content)
}

func (c *documentController) GetAll(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)
	status := ctx.Query("status")

	res, err := c.service.List(ctx.Context(), page, limit, status)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document list", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Validation("invalid document id")
	}

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Document deleted", nil))
}
