package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"
)

var _ domain.Messenger = (*LINEService)(nil)

type LINEService struct {
	client     *messaging_api.MessagingApiAPI
	logger     *zap.Logger
	metrics    *Metrics
	maxRetries int
	backoff    time.Duration
}

func NewLINEService(cfg domain.ConfigService, logger *zap.Logger, metrics *Metrics) (*LINEService, error) {
	client, err := messaging_api.NewMessagingApiAPI(
		cfg.GetChannelAccessToken(),
		messaging_api.WithEndpoint(cfg.GetLineAPIEndpoint()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging api client: %w", err)
	}

	return &LINEService{
		client:     client,
		logger:     logger,
		metrics:    metrics,
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}, nil
}

// Push sends messages in consecutive push calls of at most MaxPushMessages,
// so the user sees them in the given order.
func (s *LINEService) Push(ctx context.Context, to string, messages ...messaging_api.MessageInterface) error {
	for _, req := range PushRequests(to, messages) {
		if err := s.push(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *LINEService) PushText(ctx context.Context, to, text string) error {
	return s.Push(ctx, to, TextMessages(text)...)
}

func (s *LINEService) push(ctx context.Context, req *messaging_api.PushMessageRequest) error {
	// The same retry key across attempts lets the platform drop duplicates.
	retryKey := uuid.NewString()

	var err error
	attempts := 0
	for i := 0; i < s.maxRetries; i++ {
		attempts++
		var res *http.Response
		res, _, err = s.client.WithContext(ctx).PushMessageWithHttpInfo(req, retryKey)
		if err == nil {
			s.metrics.RecordPush(ResultOK)
			return nil
		}

		if res != nil && res.StatusCode == http.StatusConflict {
			// already accepted under this retry key
			s.metrics.RecordPush(ResultOK)
			return nil
		}

		if !retryablePush(res) {
			break
		}

		s.logger.Warn("Push failed, retrying",
			zap.String("to", req.To),
			zap.String("retryKey", retryKey),
			zap.Int("attempt", i+1),
			zap.Int("maxRetries", s.maxRetries),
			zap.Error(err))

		if i < s.maxRetries-1 {
			select {
			case <-time.After(time.Duration(i+1) * s.backoff):
			case <-ctx.Done():
				s.metrics.RecordPush(ResultError)
				return ctx.Err()
			}
		}
	}

	s.metrics.RecordPush(ResultError)
	s.logger.Error("Failed to push message",
		zap.String("to", req.To),
		zap.Int("messages", len(req.Messages)),
		zap.Error(err))

	return fmt.Errorf("failed to push message after %d attempts: %w", attempts, err)
}

func retryablePush(res *http.Response) bool {
	if res == nil {
		return true
	}
	return res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError
}
