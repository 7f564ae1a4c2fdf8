package handlers

import (
	"errors"

	"fra-atlas/internal/dto"
	"fra-atlas/internal/service"
	"fra-atlas/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploadService *service.UploadService
	claimService  *service.ClaimService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService *service.UploadService, claimService *service.ClaimService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		claimService:  claimService,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Upload a claim document
// @Description Stores a PDF, JPEG or PNG (max 10MB) and runs OCR on it
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Claim document"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/upload [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	resp, err := h.uploadService.Upload(c.Context(), service.UploadInput{
		Reader:       src,
		OriginalName: file.Filename,
		MimeType:     file.Header.Get(fiber.HeaderContentType),
		Size:         file.Size,
		UserID:       middleware.UserID(c),
	})
	if errors.Is(err, service.ErrFileTooLarge) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": FileTooLargeMessage(h.uploadService.MaxBytes()),
		})
	}
	if err != nil {
		return respondError(c, h.logger, err, "", "Failed to upload file")
	}

	return c.JSON(resp)
}

// Reprocess godoc
// @Summary Re-run OCR with corrections
// @Description Re-reads an uploaded file and overlays reviewer corrections; confidence becomes 100
// @Tags ocr
// @Accept json
// @Produce json
// @Param request body dto.ReprocessRequest true "File and corrections"
// @Success 200 {object} dto.ExtractedRecord
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/ocr/reprocess [post]
func (h *UploadHandler) Reprocess(c *fiber.Ctx) error {
	var req dto.ReprocessRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	rec, err := h.uploadService.Reprocess(c.Context(), &req)
	if err != nil {
		return respondError(c, h.logger, err, "File not found", "Failed to reprocess file")
	}
	return c.JSON(rec)
}

// SaveExtraction godoc
// @Summary Create a claim from a reviewed extraction
// @Tags ocr
// @Accept json
// @Produce json
// @Param request body dto.SaveExtractionRequest true "Reviewed extraction"
// @Success 201 {object} dto.ClaimResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/ocr/save [post]
func (h *UploadHandler) SaveExtraction(c *fiber.Ctx) error {
	var req dto.SaveExtractionRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	claim, err := h.claimService.SaveReviewed(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return respondError(c, h.logger, err, "File not found", "Failed to save claim")
	}
	return c.Status(fiber.StatusCreated).JSON(claim)
}
