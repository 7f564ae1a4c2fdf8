package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"fra-atlas/internal/dto"
	"fra-atlas/internal/repository"
	"fra-atlas/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError converts a service error into a JSON error response.
// notFound is the message used for repository.ErrNotFound; fallback is used
// for anything unexpected, which is also logged.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, notFound, fallback string) error {
	status, msg := fiber.StatusInternalServerError, fallback

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status, msg = fiber.StatusBadRequest, verr.Message
	case errors.Is(err, repository.ErrNotFound):
		status, msg = fiber.StatusNotFound, notFound
	case errors.Is(err, service.ErrDuplicateClaim):
		status, msg = fiber.StatusBadRequest, "Claim ID already exists"
	case errors.Is(err, service.ErrUnsupportedMedia):
		status, msg = fiber.StatusBadRequest, "Invalid file type. Only PDF, JPEG and PNG files are allowed"
	case errors.Is(err, service.ErrInfectedFile):
		status, msg = fiber.StatusBadRequest, "File rejected by antivirus scan"
	case errors.Is(err, service.ErrFileNotReviewable):
		status, msg = fiber.StatusBadRequest, "File is not awaiting review"
	case errors.Is(err, service.ErrUserExists):
		status, msg = fiber.StatusConflict, "User already exists"
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserNotFound):
		status, msg = fiber.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrProcessing):
		status, msg = fiber.StatusInternalServerError, "Failed to process file"
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err), zap.String("path", c.Path()))
	}

	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// bindJSON decodes the body strictly, rejecting unknown fields and trailing
// data, then runs struct validation.
func bindJSON(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return service.NewValidationError("Request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return service.NewValidationError("Invalid request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return service.NewValidationError("Invalid request body: unexpected trailing data")
	}

	if err := dto.Validate(out); err != nil {
		return service.NewValidationError("%s", err.Error())
	}
	return nil
}

// FileTooLargeMessage names the upload cap in whole megabytes.
func FileTooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", maxBytes>>20)
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, service.NewValidationError("Invalid claim ID")
	}
	return id, nil
}
