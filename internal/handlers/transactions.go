package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"golang.org/x/sync/errgroup"
)

const (
	transactionNotFoundText = "該当取引はありません"
	missingConditionText    = "検索条件が足りません"
	selectSellerText        = "販売者を選択してください"
	sellerNotFoundText      = "選択できる販売者がありません"

	// orders beyond this are summarized instead of detailed
	maxDetailedOrders = 3
)

func (h *BotHandler) searchTransactionByID(ctx context.Context, user *domain.User, params domain.Params) error {
	transactionID := params.Get("transaction")
	if transactionID == "" {
		return h.pushText(ctx, user.UserID, missingConditionText)
	}

	txs, err := h.orders.SearchPlaceOrderTransactions(ctx, user.AccessToken, domain.TransactionConditions{
		IDs: []string{transactionID},
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if len(txs) == 0 {
		return h.pushText(ctx, user.UserID, fmt.Sprintf("存在しない取引IDです: %s", transactionID))
	}

	tx := txs[0]
	switch tx.Status {
	case domain.TransactionStatusInProgress:
		return h.pushText(ctx, user.UserID, fmt.Sprintf("注文取引[%s]は進行中です", tx.ID))
	case domain.TransactionStatusConfirmed:
		if tx.Result == nil {
			return fmt.Errorf("confirmed transaction %s has no order", tx.ID)
		}
		return h.pushTransactionDetails(ctx, user, tx.Result.Order.OrderNumber)
	default:
		return h.pushText(ctx, user.UserID, formatUnsettledTransaction(tx))
	}
}

func (h *BotHandler) searchTransactionByReserveNum(ctx context.Context, user *domain.User, params domain.Params) error {
	reserveNum := params.Get("reserveNum")
	if reserveNum == "" {
		return h.pushText(ctx, user.UserID, missingConditionText)
	}

	return h.searchOrders(ctx, user, domain.OrderConditions{
		ConfirmationNumbers: []string{reserveNum},
		TheaterCodes:        nonEmpty(params.Get("theater")),
	})
}

func (h *BotHandler) searchTransactionByTel(ctx context.Context, user *domain.User, params domain.Params) error {
	tel := params.Get("tel")
	if tel == "" {
		return h.pushText(ctx, user.UserID, missingConditionText)
	}

	return h.searchOrders(ctx, user, domain.OrderConditions{
		Telephone:    tel,
		TheaterCodes: nonEmpty(params.Get("theater")),
	})
}

// searchTransactionByConditions searches by confirmation number or telephone
// within one seller. Without a seller the user is asked to pick one first.
func (h *BotHandler) searchTransactionByConditions(ctx context.Context, user *domain.User, params domain.Params) error {
	if params.Get("transaction") != "" {
		return h.searchTransactionByID(ctx, user, params)
	}

	confirmationNumber := params.Get("confirmationNumber")
	telephone := params.Get("telephone")
	if confirmationNumber == "" && telephone == "" {
		return h.pushText(ctx, user.UserID, missingConditionText)
	}

	seller := params.Get("seller")
	if seller == "" {
		return h.askSeller(ctx, user, params)
	}

	return h.searchOrders(ctx, user, domain.OrderConditions{
		ConfirmationNumbers: nonEmpty(confirmationNumber),
		Telephone:           telephone,
		SellerIDs:           []string{seller},
	})
}

// askSeller sends one buttons template per MaxButtonActions sellers, in the
// order the API returned them. Each button repeats the search with its seller.
func (h *BotHandler) askSeller(ctx context.Context, user *domain.User, params domain.Params) error {
	sellers, err := h.orders.SearchSellers(ctx, user.AccessToken)
	if err != nil {
		return err
	}

	var buttons []services.Button
	for _, s := range sellers {
		if s.Location == nil {
			continue
		}
		conditions := url.Values{}
		for _, key := range []string{"confirmationNumber", "telephone"} {
			if v := params.Get(key); v != "" {
				conditions.Set(key, v)
			}
		}
		conditions.Set("seller", s.ID)

		buttons = append(buttons, services.PostbackButton(s.Name,
			services.EncodePostback(domain.ActionSearchTransactionByConditions, conditions)))
	}
	if len(buttons) == 0 {
		return h.pushText(ctx, user.UserID, sellerNotFoundText)
	}

	pages, err := services.PaginateButtons(selectSellerText, buttons)
	if err != nil {
		return err
	}
	for _, page := range pages {
		if err := h.messenger.Push(ctx, user.UserID, page); err != nil {
			return err
		}
	}
	return nil
}

func (h *BotHandler) searchOrders(ctx context.Context, user *domain.User, cond domain.OrderConditions) error {
	orders, err := h.orders.SearchOrders(ctx, user.AccessToken, cond)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if len(orders) == 0 {
		return h.pushText(ctx, user.UserID, transactionNotFoundText)
	}

	for i, order := range orders {
		if i == maxDetailedOrders {
			return h.pushText(ctx, user.UserID, fmt.Sprintf("他%d件の取引があります。条件を絞り込んでください。", len(orders)-i))
		}
		if err := h.pushTransactionDetails(ctx, user, order.OrderNumber); err != nil {
			return err
		}
	}
	return nil
}

// pushTransactionDetails sends, in this order: a progress notice, the report
// of the order and the buttons template of follow-up tasks.
func (h *BotHandler) pushTransactionDetails(ctx context.Context, user *domain.User, orderNumber string) error {
	if err := h.pushText(ctx, user.UserID, fmt.Sprintf("%sの取引詳細をまとめています...", orderNumber)); err != nil {
		return err
	}

	var (
		order   *domain.Order
		tx      *domain.PlaceOrderTransaction
		tasks   []domain.Task
		actions []domain.ActionRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := h.orders.SearchOrders(gctx, user.AccessToken, domain.OrderConditions{OrderNumbers: []string{orderNumber}})
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if len(orders) > 0 {
			order = &orders[0]
		}
		return nil
	})
	g.Go(func() error {
		txs, err := h.orders.SearchPlaceOrderTransactions(gctx, user.AccessToken, domain.TransactionConditions{OrderNumbers: []string{orderNumber}})
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			return domain.NewError(domain.ErrCodeNotFound, fmt.Errorf("no transaction for order %s: %w", orderNumber, domain.ErrNotFound))
		}
		tx = &txs[0]

		tasks, err = h.orders.SearchTasks(gctx, user.AccessToken, "", tx.ID)
		return err
	})
	g.Go(func() error {
		var err error
		actions, err = h.orders.SearchActions(gctx, user.AccessToken, orderNumber)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		if domain.CodeOf(err) == domain.ErrCodeNotFound {
			return h.pushText(ctx, user.UserID, transactionNotFoundText)
		}
		return err
	}

	if order == nil && tx.Result != nil {
		order = &tx.Result.Order
	}
	if order == nil {
		return h.pushText(ctx, user.UserID, transactionNotFoundText)
	}

	if err := h.pushText(ctx, user.UserID, formatTransactionReport(*tx, *order, tasks, actions)); err != nil {
		return err
	}

	buttons := []services.Button{
		services.PostbackButton("メール送信", services.EncodePostback(domain.ActionPushNotification, url.Values{"transaction": {tx.ID}})),
		services.PostbackButton("本予約", services.EncodePostback(domain.ActionSettleSeatReservation, url.Values{"transaction": {tx.ID}})),
		services.PostbackButton("所有権作成", services.EncodePostback(domain.ActionCreateOwnershipInfos, url.Values{"transaction": {tx.ID}})),
	}
	if order.OrderStatus == domain.OrderStatusDelivered {
		buttons = append(buttons, services.PostbackButton("返品する",
			services.EncodePostback(domain.ActionStartReturnOrder, url.Values{"orderNumber": {order.OrderNumber}})))
	}

	tmpl, err := services.ButtonTemplate("タスク実行", buttons...)
	if err != nil {
		return err
	}
	return h.messenger.Push(ctx, user.UserID, tmpl)
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
