package handlers

import (
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	loggedOutText     = "ログアウトしました。"
	logoutExpiredText = "ログアウトリンクの有効期限が切れました。"
)

// SessionHandler receives sessions from the sign-in service and ends them on logout
type SessionHandler struct {
	sessions  domain.SessionStore
	states    domain.OTPStore
	messenger domain.Messenger
	config    domain.ConfigService
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewSessionHandler(sessions domain.SessionStore, states domain.OTPStore, messenger domain.Messenger, config domain.ConfigService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		states:    states,
		messenger: messenger,
		config:    config,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// SaveSession handles PUT /api/sessions/:userId
func (h *SessionHandler) SaveSession(c *fiber.Ctx) error {
	apiKey := h.config.GetAPIKey()
	if apiKey == "" || requestAPIKey(c) != apiKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	userID := strings.TrimSpace(c.Params("userId"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userId is required"})
	}

	var req domain.SaveSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	session := domain.Session{
		UserID:      userID,
		AccessToken: req.AccessToken,
		Username:    req.Username,
		ExpiresAt:   h.now().Add(time.Duration(req.ExpiresIn) * time.Second),
	}
	if err := h.sessions.Save(c.UserContext(), session); err != nil {
		h.logger.Error("Failed to save session", zap.String("userId", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save session"})
	}

	h.logger.Info("Session saved", zap.String("userId", userID), zap.Time("expiresAt", session.ExpiresAt))
	return c.JSON(fiber.Map{"status": "saved", "userId": userID})
}

// Logout handles GET /logout?userId=&state=, the target of the logout button.
// The state is consumed, so a link works once and only for its owner.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	state := strings.TrimSpace(c.Query("state"))
	if userID == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("userId and state are required")
	}

	stored, err := h.states.Consume(c.UserContext(), userID, state)
	if err != nil {
		h.logger.Error("Failed to read logout state", zap.String("userId", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to logout")
	}
	if !isLogoutState(stored) {
		h.logger.Warn("Rejected logout", zap.String("userId", userID))
		return c.Status(fiber.StatusForbidden).SendString(logoutExpiredText)
	}

	if err := h.sessions.Delete(c.UserContext(), userID); err != nil {
		h.logger.Error("Failed to delete session", zap.String("userId", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to logout")
	}

	if err := h.messenger.PushText(c.UserContext(), userID, loggedOutText); err != nil {
		h.logger.Warn("Failed to notify logout", zap.String("userId", userID), zap.Error(err))
	}

	return c.SendString(loggedOutText)
}

func isLogoutState(stored *domain.Event) bool {
	if stored == nil || stored.Kind != domain.EventKindPostback {
		return false
	}
	action, _ := ParsePostbackData(stored.Postback.Data)
	return action == domain.ActionLogout.String()
}
