package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"go.uber.org/zap"
)

const (
	maxPassAttempts = 3

	returnStartingText   = "返品取引を開始します..."
	returnStartedText    = "返品取引を開始しました。"
	passInstructionText  = "二段階認証を行います。送信されてくる文字列を入力してください。"
	returnConfirmingText = "返品取引を受け付けようとしています..."
	passExpiredText      = "パスの有効期限が切れました。"
	returnConfirmedText  = "返品取引を受け付けました。"
)

// startReturnOrder opens the return transaction and hands the user a pass.
// The transaction is only confirmed once the pass comes back as a message.
func (h *BotHandler) startReturnOrder(ctx context.Context, user *domain.User, params domain.Params) error {
	orderNumber, err := h.returnTarget(ctx, user, params)
	if err != nil || orderNumber == "" {
		return err
	}

	if err := h.pushText(ctx, user.UserID, returnStartingText); err != nil {
		return err
	}

	txn, err := h.orders.StartReturnOrder(ctx, user.AccessToken, orderNumber, h.now().Add(h.cfg.GetReturnOrderExpires()))
	if err != nil {
		return err
	}
	h.logger.Info("Return order started",
		zap.String("userId", user.UserID),
		zap.String("orderNumber", orderNumber),
		zap.String("transactionId", txn.ID))

	pass, err := h.issuePass(ctx, user.UserID, txn.ID)
	if err != nil {
		return err
	}

	return h.pushText(ctx, user.UserID, returnStartedText, passInstructionText, pass)
}

// returnTarget resolves the order to return. Older buttons carry the place
// order transaction id instead of the order number. An empty result means the
// user has already been told why nothing can be returned.
func (h *BotHandler) returnTarget(ctx context.Context, user *domain.User, params domain.Params) (string, error) {
	if orderNumber := params.Get("orderNumber"); orderNumber != "" {
		return orderNumber, nil
	}

	transactionID := params.Get("transaction")
	if transactionID == "" {
		return "", h.pushText(ctx, user.UserID, missingConditionText)
	}

	txs, err := h.orders.SearchPlaceOrderTransactions(ctx, user.AccessToken, domain.TransactionConditions{
		IDs: []string{transactionID},
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if len(txs) == 0 || txs[0].Result == nil {
		return "", h.pushText(ctx, user.UserID, fmt.Sprintf("存在しない取引IDです: %s", transactionID))
	}
	return txs[0].Result.Order.OrderNumber, nil
}

// issuePass stores the confirmation postback under a fresh pass, generating
// a new pass when the store reports a collision.
func (h *BotHandler) issuePass(ctx context.Context, userID, returnTransactionID string) (string, error) {
	for attempt := 1; attempt <= maxPassAttempts; attempt++ {
		pass, err := h.passes.Generate()
		if err != nil {
			return "", err
		}

		payload := domain.NewPostbackEvent(userID, confirmReturnOrderData(returnTransactionID, pass), h.now().UnixMilli())
		err = h.otp.Save(ctx, userID, pass, payload, h.cfg.GetOTPTTL())
		if err == nil {
			h.metrics.RecordOTP("save", services.ResultOK)
			return pass, nil
		}
		if !errors.Is(err, domain.ErrPassConflict) {
			h.metrics.RecordOTP("save", services.ResultError)
			return "", err
		}

		h.metrics.RecordOTP("save", "conflict")
		h.logger.Warn("Pass collision, regenerating", zap.String("userId", userID), zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("no free pass after %d attempts: %w", maxPassAttempts, domain.ErrPassConflict)
}

func confirmReturnOrderData(transactionID, pass string) string {
	return "action=" + domain.ActionConfirmReturnOrder.String() +
		"&transaction=" + url.QueryEscape(transactionID) +
		"&pass=" + url.QueryEscape(pass)
}

// confirmReturnOrder consumes the pass and confirms the return transaction
// recorded with it. The transaction id of the incoming postback is ignored.
func (h *BotHandler) confirmReturnOrder(ctx context.Context, user *domain.User, params domain.Params) error {
	if err := h.pushText(ctx, user.UserID, returnConfirmingText); err != nil {
		return err
	}

	pass := params.Get("pass")
	var stored *domain.Event
	if pass != "" {
		var err error
		if stored, err = h.otp.Consume(ctx, user.UserID, pass); err != nil {
			return err
		}
	}
	if stored == nil || stored.Kind != domain.EventKindPostback {
		h.metrics.RecordOTP("verify", services.ResultNotFound)
		return h.pushText(ctx, user.UserID, passExpiredText)
	}
	h.metrics.RecordOTP("verify", services.ResultOK)

	_, storedParams := ParsePostbackData(stored.Postback.Data)
	transactionID := storedParams.Get("transaction")
	if transactionID == "" {
		return domain.NewError(domain.ErrCodeExpired, errors.New("stored confirmation has no transaction"))
	}

	if err := h.orders.ConfirmReturnOrder(ctx, user.AccessToken, transactionID); err != nil {
		return err
	}
	h.logger.Info("Return order confirmed", zap.String("userId", user.UserID), zap.String("transactionId", transactionID))

	return h.pushText(ctx, user.UserID, returnConfirmedText)
}
