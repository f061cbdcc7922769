package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/pkg/httpclient"
	"go.uber.org/zap"
)

var _ domain.OrderAPI = (*OrderAPIService)(nil)

// APIError is a non-2xx answer of the order API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("order api responded %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets callers test a 404 with errors.Is(err, domain.ErrNotFound)
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

type searchResult[T any] struct {
	Data []T `json:"data"`
}

type OrderAPIService struct {
	endpoint string
	client   httpclient.HTTPClient
	logger   *zap.Logger
}

func NewOrderAPIService(cfg domain.ConfigService, client httpclient.HTTPClient, logger *zap.Logger) *OrderAPIService {
	return &OrderAPIService{
		endpoint: cfg.GetAPIEndpoint(),
		client:   client,
		logger:   logger,
	}
}

func (s *OrderAPIService) SearchPlaceOrderTransactions(ctx context.Context, token string, cond domain.TransactionConditions) ([]domain.PlaceOrderTransaction, error) {
	var res searchResult[domain.PlaceOrderTransaction]
	if err := s.call(ctx, http.MethodPost, "/transactions/placeOrder/search", token, cond, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *OrderAPIService) SearchOrders(ctx context.Context, token string, cond domain.OrderConditions) ([]domain.Order, error) {
	var res searchResult[domain.Order]
	if err := s.call(ctx, http.MethodPost, "/orders/search", token, cond, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *OrderAPIService) SearchSellers(ctx context.Context, token string) ([]domain.Seller, error) {
	var res searchResult[domain.Seller]
	if err := s.call(ctx, http.MethodGet, "/sellers", token, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *OrderAPIService) SearchTasks(ctx context.Context, token string, name domain.TaskName, transactionID string) ([]domain.Task, error) {
	body := struct {
		Name          domain.TaskName `json:"name,omitempty"`
		TransactionID string          `json:"transactionId"`
	}{Name: name, TransactionID: transactionID}

	var res searchResult[domain.Task]
	if err := s.call(ctx, http.MethodPost, "/tasks/search", token, body, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *OrderAPIService) ExecuteTask(ctx context.Context, token, taskID string) error {
	return s.call(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/execute", token, nil, nil)
}

func (s *OrderAPIService) SearchActions(ctx context.Context, token, orderNumber string) ([]domain.ActionRecord, error) {
	body := map[string]string{"orderNumber": orderNumber}

	var res searchResult[domain.ActionRecord]
	if err := s.call(ctx, http.MethodPost, "/actions/search", token, body, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *OrderAPIService) StartReturnOrder(ctx context.Context, token, orderNumber string, expires time.Time) (*domain.ReturnOrderTransaction, error) {
	body := map[string]any{
		"expires": expires,
		"object": map[string]any{
			"order": map[string]string{"orderNumber": orderNumber},
		},
	}

	var txn domain.ReturnOrderTransaction
	if err := s.call(ctx, http.MethodPost, "/transactions/returnOrder/start", token, body, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *OrderAPIService) ConfirmReturnOrder(ctx context.Context, token, transactionID string) error {
	return s.call(ctx, http.MethodPut, "/transactions/returnOrder/"+url.PathEscape(transactionID)+"/confirm", token, nil, nil)
}

func (s *OrderAPIService) ExportTransactions(ctx context.Context, token string, from, through time.Time) (string, error) {
	body := map[string]any{
		"startFrom":    from,
		"startThrough": through,
		"format":       "csv",
	}

	var res struct {
		URL string `json:"url"`
	}
	if err := s.call(ctx, http.MethodPost, "/transactions/placeOrder/report", token, body, &res); err != nil {
		return "", err
	}
	if res.URL == "" {
		return "", fmt.Errorf("order api returned no report url")
	}
	return res.URL, nil
}

func (s *OrderAPIService) call(ctx context.Context, method, path, token string, in, out any) error {
	headers := map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + token,
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
		headers["Content-Type"] = "application/json"
	}

	target := s.endpoint + path

	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = s.client.Get(ctx, target, headers)
	case http.MethodPut:
		resp, err = s.client.Put(ctx, target, body, headers)
	default:
		resp, err = s.client.Post(ctx, target, body, headers)
	}
	if err != nil {
		return fmt.Errorf("order api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Debug("Order api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
