package handlers

import (
	"fra-atlas/internal/dto"
	"fra-atlas/internal/service"
	"fra-atlas/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxClaimLimit = 500

type ClaimHandler struct {
	claimService *service.ClaimService
	logger       *zap.Logger
}

func NewClaimHandler(claimService *service.ClaimService, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
		logger:       logger,
	}
}

// ListClaims godoc
// @Summary List claims
// @Description Newest claims first, each with its uploaded files
// @Tags claims
// @Produce json
// @Param limit query int false "Maximum number of claims" default(50)
// @Success 200 {array} dto.ClaimResponse
// @Failure 500 {object} map[string]string
// @Router /api/claims [get]
func (h *ClaimHandler) ListClaims(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit > maxClaimLimit {
		limit = maxClaimLimit
	}

	claims, err := h.claimService.List(c.Context(), limit)
	if err != nil {
		return respondError(c, h.logger, err, "", "Failed to fetch claims")
	}
	return c.JSON(claims)
}

// GetClaim godoc
// @Summary Get a claim
// @Tags claims
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} dto.ClaimResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/claims/{id} [get]
func (h *ClaimHandler) GetClaim(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	claim, err := h.claimService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Claim not found", "Failed to fetch claim")
	}
	return c.JSON(claim)
}

// CreateClaim godoc
// @Summary Create a claim
// @Tags claims
// @Accept json
// @Produce json
// @Param request body dto.CreateClaimRequest true "Claim"
// @Success 201 {object} dto.ClaimResponse
// @Failure 400 {object} map[string]string
// @Router /api/claims [post]
func (h *ClaimHandler) CreateClaim(c *fiber.Ctx) error {
	var req dto.CreateClaimRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	claim, err := h.claimService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return respondError(c, h.logger, err, "", "Failed to create claim")
	}
	return c.Status(fiber.StatusCreated).JSON(claim)
}

// UpdateClaim godoc
// @Summary Update a claim
// @Description Partial update; omitted fields are left unchanged
// @Tags claims
// @Accept json
// @Produce json
// @Param id path string true "Claim ID"
// @Param request body dto.UpdateClaimRequest true "Fields to change"
// @Success 200 {object} dto.ClaimResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/claims/{id} [patch]
func (h *ClaimHandler) UpdateClaim(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	var req dto.UpdateClaimRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	claim, err := h.claimService.Update(c.Context(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Claim not found", "Failed to update claim")
	}
	return c.JSON(claim)
}

// DeleteClaim godoc
// @Summary Delete a claim
// @Tags claims
// @Param id path string true "Claim ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /api/claims/{id} [delete]
func (h *ClaimHandler) DeleteClaim(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	if err := h.claimService.Delete(c.Context(), id); err != nil {
		return respondError(c, h.logger, err, "Claim not found", "Failed to delete claim")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AttachBoundary godoc
// @Summary Attach boundary geometry
// @Description Stores the GeoJSON geometry as sent
// @Tags claims
// @Accept json
// @Produce json
// @Param id path string true "Claim ID"
// @Param request body dto.BoundaryRequest true "GeoJSON geometry"
// @Success 200 {object} dto.ClaimResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/claims/{id}/boundary [post]
func (h *ClaimHandler) AttachBoundary(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	var req dto.BoundaryRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "", "")
	}

	claim, err := h.claimService.AttachBoundary(c.Context(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Claim not found", "Failed to save boundary")
	}
	return c.JSON(claim)
}

// MapClaims godoc
// @Summary Claims as GeoJSON
// @Description FeatureCollection of every claim with a boundary
// @Tags map
// @Produce json
// @Success 200 {object} dto.FeatureCollection
// @Failure 500 {object} map[string]string
// @Router /api/map/claims [get]
func (h *ClaimHandler) MapClaims(c *fiber.Ctx) error {
	fc, err := h.claimService.MapFeatures(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "", "Failed to fetch map data")
	}
	return c.JSON(fc)
}

// DashboardStats godoc
// @Summary Dashboard aggregates
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.DashboardStatsResponse
// @Failure 500 {object} map[string]string
// @Router /api/dashboard/stats [get]
func (h *ClaimHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.claimService.Stats(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "", "Failed to fetch dashboard stats")
	}
	return c.JSON(stats)
}
