package handlers

import (
	"strings"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageHandler lets operators push a text to a LINE user
type MessageHandler struct {
	messenger domain.Messenger
	config    domain.ConfigService
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewMessageHandler(messenger domain.Messenger, config domain.ConfigService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messenger: messenger,
		config:    config,
		validate:  validator.New(),
		logger:    logger,
	}
}

// SendMessage handles POST /api/send-message
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	// The push endpoint is closed unless an API key is configured
	apiKey := h.config.GetAPIKey()
	if apiKey == "" || requestAPIKey(c) != apiKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req domain.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warn("Failed to parse body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.Message = strings.TrimSpace(req.Message)
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	if err := h.messenger.PushText(c.UserContext(), req.UserID, req.Message); err != nil {
		h.logger.Error("Failed to send message", zap.String("userId", req.UserID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to send message"})
	}

	return c.JSON(domain.SendMessageResponse{
		Status: "sent",
		UserID: req.UserID,
	})
}

// requestAPIKey reads the key from the X-API-Key header or the api_key query parameter
func requestAPIKey(c *fiber.Ctx) string {
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	return c.Query("api_key")
}

func validationMessage(err error) string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return err.Error()
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return strings.ToLower(fe.Field()[:1]) + fe.Field()[1:] + " is required"
	default:
		return strings.ToLower(fe.Field()[:1]) + fe.Field()[1:] + " is invalid"
	}
}
