package handlers

import (
	"context"
	"fmt"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	taskNotFoundText = "Task not found."
	taskConcurrency  = 4
)

func (h *BotHandler) pushNotification(ctx context.Context, user *domain.User, params domain.Params) error {
	return h.executeTasks(ctx, user, params, domain.ActionPushNotification, domain.TaskSendEmailNotification)
}

func (h *BotHandler) settleSeatReservation(ctx context.Context, user *domain.User, params domain.Params) error {
	return h.executeTasks(ctx, user, params, domain.ActionSettleSeatReservation, domain.TaskSettleSeatReservation)
}

func (h *BotHandler) createOwnershipInfos(ctx context.Context, user *domain.User, params domain.Params) error {
	return h.executeTasks(ctx, user, params, domain.ActionCreateOwnershipInfos, domain.TaskCreateOwnershipInfos)
}

// executeTasks re-runs every task called name of the transaction. Failures of
// the tasks themselves are reported as "<label>失敗" rather than returned.
func (h *BotHandler) executeTasks(ctx context.Context, user *domain.User, params domain.Params, action domain.Action, name domain.TaskName) error {
	label := action.Label()
	transactionID := params.Get("transaction")
	if transactionID == "" {
		return h.pushText(ctx, user.UserID, missingConditionText)
	}

	if err := h.pushText(ctx, user.UserID, label+"中..."); err != nil {
		return err
	}

	tasks, err := h.orders.SearchTasks(ctx, user.AccessToken, name, transactionID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return h.pushText(ctx, user.UserID, taskNotFoundText)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(taskConcurrency)
	for _, task := range tasks {
		g.Go(func() error {
			return h.orders.ExecuteTask(gctx, user.AccessToken, task.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return h.pushText(ctx, user.UserID, fmt.Sprintf("%s失敗:%s", label, err))
	}

	return h.pushText(ctx, user.UserID, label+"完了")
}
