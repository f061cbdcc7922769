package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"
)

const webhookAck = "ok"

// EventHandler processes one parsed webhook batch
type EventHandler interface {
	HandleEvents(ctx context.Context, host string, events []domain.Event)
}

// WebhookHandler acknowledges every webhook call with 200 "ok" and hands the
// batch to the dispatcher in the background.
type WebhookHandler struct {
	events EventHandler
	secret string
	logger *zap.Logger
	ctx    context.Context
	wg     sync.WaitGroup
}

func NewWebhookHandler(events EventHandler, cfg domain.ConfigService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		events: events,
		secret: cfg.GetChannelSecret(),
		logger: logger,
		ctx:    context.Background(),
	}
}

func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	if h.secret != "" && !webhook.ValidateSignature(h.secret, c.Get("X-Line-Signature"), body) {
		h.logger.Warn("Rejected webhook with invalid signature", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusOK).SendString(webhookAck)
	}

	events, err := ParseEvents(body)
	if err != nil {
		h.logger.Warn("Failed to parse webhook body", zap.Error(err), zap.Int("size", len(body)))
		return c.Status(fiber.StatusOK).SendString(webhookAck)
	}
	if len(events) == 0 {
		return c.Status(fiber.StatusOK).SendString(webhookAck)
	}

	host := strings.Clone(c.Hostname())
	batchID := uuid.NewString()
	h.logger.Debug("Webhook batch received",
		zap.String("batchId", batchID),
		zap.Int("events", len(events)),
		zap.String("host", host))

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.events.HandleEvents(h.ctx, host, events)
		h.logger.Debug("Webhook batch done", zap.String("batchId", batchID))
	}()

	return c.Status(fiber.StatusOK).SendString(webhookAck)
}

// Wait blocks until every batch accepted so far has been processed
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

// ParseEvents decodes a webhook body into domain events. Events from
// non-user sources and kinds other than text messages and postbacks are
// skipped.
func ParseEvents(body []byte) ([]domain.Event, error) {
	var req webhook.CallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}

	events := make([]domain.Event, 0, len(req.Events))
	for _, raw := range req.Events {
		if evt, ok := toDomainEvent(raw); ok {
			events = append(events, evt)
		}
	}
	return events, nil
}

func toDomainEvent(raw webhook.EventInterface) (domain.Event, bool) {
	switch e := raw.(type) {
	case webhook.MessageEvent:
		return messageEvent(e.Source, e.Timestamp, e.Message)
	case *webhook.MessageEvent:
		return messageEvent(e.Source, e.Timestamp, e.Message)
	case webhook.PostbackEvent:
		return postbackEvent(e.Source, e.Timestamp, e.Postback)
	case *webhook.PostbackEvent:
		return postbackEvent(e.Source, e.Timestamp, e.Postback)
	}
	return domain.Event{}, false
}

func messageEvent(src webhook.SourceInterface, ts int64, msg webhook.MessageContentInterface) (domain.Event, bool) {
	userID := sourceUserID(src)
	if userID == "" {
		return domain.Event{}, false
	}

	var text string
	switch m := msg.(type) {
	case webhook.TextMessageContent:
		text = m.Text
	case *webhook.TextMessageContent:
		text = m.Text
	default:
		return domain.Event{}, false
	}
	return domain.NewMessageEvent(userID, text, ts), true
}

func postbackEvent(src webhook.SourceInterface, ts int64, pb *webhook.PostbackContent) (domain.Event, bool) {
	userID := sourceUserID(src)
	if userID == "" || pb == nil {
		return domain.Event{}, false
	}
	return domain.NewPostbackEvent(userID, pb.Data, ts), true
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case *webhook.UserSource:
		return s.UserId
	}
	return ""
}
