package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type BotHandler struct {
	auth      domain.AuthGate
	messenger domain.Messenger
	orders    domain.OrderAPI
	otp       domain.OTPStore
	passes    domain.PassGenerator
	cfg       domain.ConfigService
	logger    *zap.Logger
	metrics   *services.Metrics
	registry  map[domain.Action]actionFunc
	now       func() time.Time
}

func NewBotHandler(
	auth domain.AuthGate,
	messenger domain.Messenger,
	orders domain.OrderAPI,
	otp domain.OTPStore,
	passes domain.PassGenerator,
	cfg domain.ConfigService,
	logger *zap.Logger,
	metrics *services.Metrics,
) *BotHandler {
	return &BotHandler{
		auth:      auth,
		messenger: messenger,
		orders:    orders,
		otp:       otp,
		passes:    passes,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		registry:  newRegistry(),
		now:       time.Now,
	}
}

// HandleEvents processes one webhook batch. Events run concurrently, at most
// DISPATCH_CONCURRENCY at a time; a failing event never affects its siblings.
func (h *BotHandler) HandleEvents(ctx context.Context, host string, events []domain.Event) {
	var g errgroup.Group
	g.SetLimit(h.cfg.GetDispatchConcurrency())

	for _, evt := range events {
		g.Go(func() error {
			h.HandleEvent(ctx, host, evt)
			return nil
		})
	}
	_ = g.Wait()
}

func (h *BotHandler) HandleEvent(ctx context.Context, host string, evt domain.Event) {
	if err := evt.Validate(); err != nil {
		h.logger.Warn("Dropping malformed event", zap.Error(err))
		return
	}
	h.metrics.RecordEvent(string(evt.Kind))

	user, err := h.auth.Authenticate(ctx, evt.UserID, host)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			h.logger.Error("Failed to authenticate user", zap.String("userId", evt.UserID), zap.Error(err))
		}
		if err := h.auth.PromptLogin(ctx, evt.UserID, host); err != nil {
			h.logger.Error("Failed to send login prompt", zap.String("userId", evt.UserID), zap.Error(err))
		}
		return
	}

	switch evt.Kind {
	case domain.EventKindMessage:
		h.handleMessage(ctx, user, evt.Message.Text)
	case domain.EventKindPostback:
		h.handlePostback(ctx, user, evt.Postback.Data)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, user *domain.User, text string) {
	text = strings.TrimSpace(text)
	h.logger.Debug("Message received", zap.String("userId", user.UserID), zap.String("text", text))

	// a pending pass typed back by its owner replays the stored postback
	if text != "" {
		stored, err := h.otp.Verify(ctx, user.UserID, text)
		if err != nil {
			h.logger.Warn("Failed to look up pass", zap.String("userId", user.UserID), zap.Error(err))
		} else if stored != nil && stored.Kind == domain.EventKindPostback {
			h.metrics.RecordOTP("replay", services.ResultOK)
			h.handlePostback(ctx, user, stored.Postback.Data)
			return
		}
	}

	label, respond := h.routeText(text)
	_ = h.run(ctx, user, label, respond)
}

// routeText picks the responder of a typed message
func (h *BotHandler) routeText(text string) (string, func(context.Context, *domain.User) error) {
	switch {
	case text == commandInquiry:
		return commandInquiry, h.askTransactionInquiryKey
	case strings.EqualFold(text, commandCSV):
		return domain.ActionAskFromWhenAndToWhen.Label(), h.askFromWhenAndToWhen
	case strings.EqualFold(text, commandLogout):
		return domain.ActionLogout.Label(), h.logout
	}

	if from, through, ok := parseDateRange(text); ok {
		return domain.ActionSearchTransactionsByDate.Label(), func(ctx context.Context, user *domain.User) error {
			return h.exportTransactions(ctx, user, from, through)
		}
	}

	if searchKeyPattern.MatchString(text) {
		return domain.ActionSearchTransactionByConditions.Label(), func(ctx context.Context, user *domain.User) error {
			return h.selectSearchTransactionsKey(ctx, user, text)
		}
	}

	return "使い方", h.pushHowToUse
}

func (h *BotHandler) handlePostback(ctx context.Context, user *domain.User, data string) {
	name, params := ParsePostbackData(data)

	action, fn, err := h.resolve(name)
	if err != nil {
		h.logger.Debug("Ignoring postback", zap.String("userId", user.UserID), zap.String("data", data), zap.Error(err))
		h.metrics.RecordAction(name, services.ResultIgnored)
		return
	}

	h.logger.Debug("Dispatching postback", zap.String("userId", user.UserID), zap.String("action", action.String()))
	err = h.run(ctx, user, action.Label(), func(ctx context.Context, user *domain.User) error {
		return fn(h, ctx, user, params)
	})
	if err != nil {
		h.metrics.RecordAction(action.String(), services.ResultError)
		return
	}
	h.metrics.RecordAction(action.String(), services.ResultOK)
}

// run invokes a handler and turns any failure, panics included, into a chat
// message. The error is returned for bookkeeping only.
func (h *BotHandler) run(ctx context.Context, user *domain.User, label string, fn func(context.Context, *domain.User) error) error {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx, user)
	}()
	if err == nil {
		return nil
	}

	if domain.CodeOf(err) == domain.ErrCodeNotFound {
		h.logger.Info("Handler found nothing", zap.String("userId", user.UserID), zap.String("label", label), zap.Error(err))
	} else {
		h.logger.Error("Handler failed", zap.String("userId", user.UserID), zap.String("label", label), zap.Error(err))
	}

	if pushErr := h.messenger.PushText(ctx, user.UserID, fmt.Sprintf("%sできませんでした: %s", label, err)); pushErr != nil {
		h.logger.Error("Failed to report handler failure", zap.String("userId", user.UserID), zap.Error(pushErr))
	}
	return err
}

// pushText sends texts in order, as few push calls as possible
func (h *BotHandler) pushText(ctx context.Context, userID string, texts ...string) error {
	var messages []messaging_api.MessageInterface
	for _, t := range texts {
		messages = append(messages, services.TextMessages(t)...)
	}
	return h.messenger.Push(ctx, userID, messages...)
}
