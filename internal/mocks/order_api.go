package mocks

import (
	"context"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/stretchr/testify/mock"
)

type OrderAPI struct {
	mock.Mock
}

func (m *OrderAPI) SearchPlaceOrderTransactions(ctx context.Context, token string, cond domain.TransactionConditions) ([]domain.PlaceOrderTransaction, error) {
	args := m.Called(ctx, token, cond)
	txs, _ := args.Get(0).([]domain.PlaceOrderTransaction)
	return txs, args.Error(1)
}

func (m *OrderAPI) SearchOrders(ctx context.Context, token string, cond domain.OrderConditions) ([]domain.Order, error) {
	args := m.Called(ctx, token, cond)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *OrderAPI) SearchSellers(ctx context.Context, token string) ([]domain.Seller, error) {
	args := m.Called(ctx, token)
	sellers, _ := args.Get(0).([]domain.Seller)
	return sellers, args.Error(1)
}

func (m *OrderAPI) SearchTasks(ctx context.Context, token string, name domain.TaskName, transactionID string) ([]domain.Task, error) {
	args := m.Called(ctx, token, name, transactionID)
	tasks, _ := args.Get(0).([]domain.Task)
	return tasks, args.Error(1)
}

func (m *OrderAPI) ExecuteTask(ctx context.Context, token, taskID string) error {
	args := m.Called(ctx, token, taskID)
	return args.Error(0)
}

func (m *OrderAPI) SearchActions(ctx context.Context, token, orderNumber string) ([]domain.ActionRecord, error) {
	args := m.Called(ctx, token, orderNumber)
	actions, _ := args.Get(0).([]domain.ActionRecord)
	return actions, args.Error(1)
}

func (m *OrderAPI) StartReturnOrder(ctx context.Context, token, orderNumber string, expires time.Time) (*domain.ReturnOrderTransaction, error) {
	args := m.Called(ctx, token, orderNumber, expires)
	txn, _ := args.Get(0).(*domain.ReturnOrderTransaction)
	return txn, args.Error(1)
}

func (m *OrderAPI) ConfirmReturnOrder(ctx context.Context, token, transactionID string) error {
	args := m.Called(ctx, token, transactionID)
	return args.Error(0)
}

func (m *OrderAPI) ExportTransactions(ctx context.Context, token string, from, through time.Time) (string, error) {
	args := m.Called(ctx, token, from, through)
	return args.String(0), args.Error(1)
}
