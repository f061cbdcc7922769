package handlers

import (
	"context"
	"fmt"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

type actionFunc func(h *BotHandler, ctx context.Context, user *domain.User, params domain.Params) error

// newRegistry maps every postback action onto its handler. The map is built
// once per BotHandler and never changes afterwards.
func newRegistry() map[domain.Action]actionFunc {
	return map[domain.Action]actionFunc{
		domain.ActionSearchTransactionByID:         (*BotHandler).searchTransactionByID,
		domain.ActionSearchTransactionByReserveNum: (*BotHandler).searchTransactionByReserveNum,
		domain.ActionSearchTransactionByTel:        (*BotHandler).searchTransactionByTel,
		domain.ActionSearchTransactionByConditions: (*BotHandler).searchTransactionByConditions,
		domain.ActionPushNotification:              (*BotHandler).pushNotification,
		domain.ActionSettleSeatReservation:         (*BotHandler).settleSeatReservation,
		domain.ActionCreateOwnershipInfos:          (*BotHandler).createOwnershipInfos,
		domain.ActionStartReturnOrder:              (*BotHandler).startReturnOrder,
		domain.ActionConfirmReturnOrder:            (*BotHandler).confirmReturnOrder,
		domain.ActionSearchTransactionsByDate:      (*BotHandler).searchTransactionsByDate,
		domain.ActionLogout:                        (*BotHandler).logoutAction,
		domain.ActionAskFromWhenAndToWhen:          (*BotHandler).askFromWhenAndToWhenAction,
	}
}

// resolve finds the handler of a postback action name. Names outside the
// enum, typically from stale buttons in chat history, yield ErrUnknownAction.
func (h *BotHandler) resolve(name string) (domain.Action, actionFunc, error) {
	action, ok := domain.ParseAction(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, name)
	}

	fn, ok := h.registry[action]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q has no handler", domain.ErrUnknownAction, name)
	}
	return action, fn, nil
}
