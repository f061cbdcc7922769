package handlers

import (
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OTPHandler struct {
	store  domain.OTPStore
	cfg    domain.ConfigService
	logger *zap.Logger
}

func NewOTPHandler(store domain.OTPStore, cfg domain.ConfigService, logger *zap.Logger) *OTPHandler {
	return &OTPHandler{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// GetOTPStatus handles GET /api/otp/status (for debugging)
func (h *OTPHandler) GetOTPStatus(c *fiber.Ctx) error {
	if !h.validateAPIKey(c) {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	active, err := h.store.Active(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to count passes", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to read pass store")
	}

	return c.JSON(domain.OTPStatusResponse{
		Status:       "active",
		ActivePasses: active,
		TTLSeconds:   int(h.cfg.GetOTPTTL().Seconds()),
	})
}

// validateAPIKey rejects every request when no API key is configured
func (h *OTPHandler) validateAPIKey(c *fiber.Ctx) bool {
	expectedKey := h.cfg.GetAPIKey()
	return expectedKey != "" && requestAPIKey(c) == expectedKey
}
