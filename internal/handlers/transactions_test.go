package handlers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func deliveredOrder(orderNumber string) domain.Order {
	return domain.Order{
		OrderNumber:        orderNumber,
		ConfirmationNumber: "2425",
		OrderStatus:        domain.OrderStatusDelivered,
		OrderDate:          time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC),
		Seller:             domain.Seller{ID: "S1", Name: "シネマ", Location: &domain.Location{BranchCode: "118", Name: "池袋"}},
		Customer:           domain.Customer{Name: "山田", Telephone: "+819012345678", Email: "yamada@example.com"},
		Price:              1800,
		PriceCurrency:      "JPY",
		PaymentMethods:     []string{"CreditCard"},
		AcceptedOffers: []domain.AcceptedOffer{{
			ItemName:    "映画",
			StartDate:   time.Date(2024, 1, 12, 9, 30, 0, 0, time.UTC),
			SeatNumber:  "A-1",
			TicketToken: "tok-1",
		}},
	}
}

// expectDetails scripts the lookups pushTransactionDetails makes for one order
func expectDetails(f *botFixture, order domain.Order, txID string) {
	f.orders.On("SearchOrders", mock.Anything, testToken, domain.OrderConditions{OrderNumbers: []string{order.OrderNumber}}).
		Return([]domain.Order{order}, nil)
	f.orders.On("SearchPlaceOrderTransactions", mock.Anything, testToken, domain.TransactionConditions{OrderNumbers: []string{order.OrderNumber}}).
		Return([]domain.PlaceOrderTransaction{{
			ID:        txID,
			Status:    domain.TransactionStatusConfirmed,
			StartDate: time.Date(2024, 1, 10, 2, 55, 0, 0, time.UTC),
			Result:    &domain.PlaceOrderResult{Order: order},
		}}, nil)
	f.orders.On("SearchTasks", mock.Anything, testToken, domain.TaskName(""), txID).
		Return([]domain.Task{{ID: "T1", Name: domain.TaskSendEmailNotification, Status: domain.TaskStatusReady}}, nil)
	f.orders.On("SearchActions", mock.Anything, testToken, order.OrderNumber).
		Return([]domain.ActionRecord{{
			TypeOf:       "OrderAction",
			ActionStatus: domain.ActionStatusCompleted,
			StartDate:    time.Date(2024, 1, 10, 3, 0, 0, 0, time.UTC),
		}}, nil)
}

func TestSearchTransactionByReserveNum_NoMatch(t *testing.T) {
	f := newBotFixture(t)
	f.orders.On("SearchOrders", mock.Anything, testToken, domain.OrderConditions{
		ConfirmationNumbers: []string{"1616"},
		TheaterCodes:        []string{"118"},
	}).Return(nil, nil)

	f.postback(t.Context(), "action=searchTransactionByReserveNum&reserveNum=1616&theater=118")

	assert.Equal(t, []string{transactionNotFoundText}, f.texts())
	assert.Empty(t, f.templates())
}

func TestSearchTransactionByReserveNum_NotFoundErrorIsNoMatch(t *testing.T) {
	f := newBotFixture(t)
	f.orders.On("SearchOrders", mock.Anything, testToken, mock.Anything).Return(nil, domain.ErrNotFound)

	f.postback(t.Context(), "action=searchTransactionByReserveNum&reserveNum=1616")

	assert.Equal(t, []string{transactionNotFoundText}, f.texts())
}

func TestSearch_MissingConditions(t *testing.T) {
	for _, data := range []string{
		"action=searchTransactionByReserveNum",
		"action=searchTransactionByTel&theater=118",
		"action=searchTransactionById",
		"action=searchTransactionByConditions&seller=S1",
	} {
		t.Run(data, func(t *testing.T) {
			f := newBotFixture(t)

			f.postback(t.Context(), data)

			assert.Equal(t, []string{missingConditionText}, f.texts())
			assert.Empty(t, f.orders.Calls)
		})
	}
}

func TestSearchTransactionByTel_ShowsDetails(t *testing.T) {
	f := newBotFixture(t)
	order := deliveredOrder("ORD-1")
	f.orders.On("SearchOrders", mock.Anything, testToken, domain.OrderConditions{
		Telephone:    "09012345678",
		TheaterCodes: []string{"118"},
	}).Return([]domain.Order{order}, nil)
	expectDetails(f, order, "TX-1")

	f.postback(t.Context(), "action=searchTransactionByTel&tel=09012345678&theater=118")

	texts := f.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "ORD-1の取引詳細をまとめています...", texts[0])
	assert.Contains(t, texts[1], "取引ステータス: Confirmed")
	assert.Contains(t, texts[1], "確認番号: 2425")
	assert.Contains(t, texts[1], "販売者: シネマ 池袋")
	assert.Contains(t, texts[1], "---------- --:--:-- メール送信")
	assert.Contains(t, texts[1], "↓ 注文受付")
	assert.Contains(t, texts[1], "●A-1 tok-1")

	require.Len(t, f.templates(), 1)
	tmpl := f.templates()[0]
	assert.Equal(t, "タスク実行", tmpl.Text)
	actions := postbackActions(t, tmpl)
	require.Len(t, actions, 4)
	assert.Equal(t, "action=pushNotification&transaction=TX-1", actions[0].Data)
	assert.Equal(t, "action=settleSeatReservation&transaction=TX-1", actions[1].Data)
	assert.Equal(t, "action=createOwnershipInfos&transaction=TX-1", actions[2].Data)
	assert.Equal(t, "返品する", actions[3].Label)
	assert.Equal(t, "action=startReturnOrder&orderNumber=ORD-1", actions[3].Data)
}

func TestSearchOrders_SummarizesBeyondThree(t *testing.T) {
	f := newBotFixture(t)
	var orders []domain.Order
	for i := range 5 {
		order := deliveredOrder(fmt.Sprintf("ORD-%d", i))
		order.OrderStatus = domain.OrderStatusProcessing
		orders = append(orders, order)
		if i < maxDetailedOrders {
			expectDetails(f, order, fmt.Sprintf("TX-%d", i))
		}
	}
	f.orders.On("SearchOrders", mock.Anything, testToken, domain.OrderConditions{Telephone: "0312345678"}).Return(orders, nil)

	f.postback(t.Context(), "action=searchTransactionByTel&tel=0312345678")

	texts := f.texts()
	require.Len(t, texts, 7)
	assert.Equal(t, "他2件の取引があります。条件を絞り込んでください。", texts[6])

	templates := f.templates()
	require.Len(t, templates, 3)
	for _, tmpl := range templates {
		assert.Len(t, tmpl.Actions, 3, "no return button for undelivered orders")
	}
}

func TestSearchTransactionByID(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		f := newBotFixture(t)
		f.orders.On("SearchPlaceOrderTransactions", mock.Anything, testToken, domain.TransactionConditions{IDs: []string{"nope"}}).
			Return(nil, nil)

		f.postback(t.Context(), "action=searchTransactionById&transaction=nope")

		assert.Equal(t, []string{"存在しない取引IDです: nope"}, f.texts())
	})

	t.Run("in progress", func(t *testing.T) {
		f := newBotFixture(t)
		f.orders.On("SearchPlaceOrderTransactions", mock.Anything, testToken, domain.TransactionConditions{IDs: []string{"TX-9"}}).
			Return([]domain.PlaceOrderTransaction{{ID: "TX-9", Status: domain.TransactionStatusInProgress}}, nil)

		f.postback(t.Context(), "action=searchTransactionById&transaction=TX-9")

		assert.Equal(t, []string{"注文取引[TX-9]は進行中です"}, f.texts())
	})

	t.Run("expired", func(t *testing.T) {
		f := newBotFixture(t)
		f.orders.On("SearchPlaceOrderTransactions", mock.Anything, testToken, domain.TransactionConditions{IDs: []string{"TX-8"}}).
			Return([]domain.PlaceOrderTransaction{{
				ID:        "TX-8",
				Status:    domain.TransactionStatusExpired,
				StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Expires:   time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC),
				Agent:     domain.Customer{Name: "佐藤"},
			}}, nil)

		f.postback(t.Context(), "action=searchTransactionById&transaction=TX-8")

		texts := f.texts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "取引ID: TX-8")
		assert.Contains(t, texts[0], "2024-01-01 09:15:00 期限切れ")
		assert.Contains(t, texts[0], "佐藤")
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newBotFixture(t)
		order := deliveredOrder("ORD-7")
		f.orders.On("SearchPlaceOrderTransactions", mock.Anything, testToken, domain.TransactionConditions{IDs: []string{"TX-7"}}).
			Return([]domain.PlaceOrderTransaction{{
				ID:     "TX-7",
				Status: domain.TransactionStatusConfirmed,
				Result: &domain.PlaceOrderResult{Order: order},
			}}, nil)
		expectDetails(f, order, "TX-7")

		f.postback(t.Context(), "action=searchTransactionById&transaction=TX-7")

		texts := f.texts()
		require.Len(t, texts, 2)
		assert.Equal(t, "ORD-7の取引詳細をまとめています...", texts[0])
		assert.Len(t, f.templates(), 1)
	})
}

func TestSearchTransactionByConditions_AsksSellerInPages(t *testing.T) {
	f := newBotFixture(t)
	var sellers []domain.Seller
	for i := range 13 {
		sellers = append(sellers, domain.Seller{
			ID:       fmt.Sprintf("S%02d", i),
			Name:     fmt.Sprintf("劇場%02d", i),
			Location: &domain.Location{BranchCode: fmt.Sprintf("%03d", i)},
		})
	}
	sellers = append(sellers, domain.Seller{ID: "WEB", Name: "オンライン"})
	f.orders.On("SearchSellers", mock.Anything, testToken).Return(sellers, nil)

	f.postback(t.Context(), "action=searchTransactionByConditions&confirmationNumber=2425")

	assert.Len(t, f.messenger.Pushes(), 4)
	templates := f.templates()
	require.Len(t, templates, 4)

	var labels []string
	for _, tmpl := range templates {
		assert.Equal(t, selectSellerText, tmpl.Text)
		for _, a := range postbackActions(t, tmpl) {
			labels = append(labels, a.Label)
			assert.True(t, strings.HasPrefix(a.Data, "action=searchTransactionByConditions&confirmationNumber=2425&seller=S"), a.Data)
		}
	}
	require.Len(t, labels, 13)
	for i, label := range labels {
		assert.Equal(t, fmt.Sprintf("劇場%02d", i), label)
	}
	assert.Len(t, templates[3].Actions, 1)
}

func TestSearchTransactionByConditions_WithSeller(t *testing.T) {
	f := newBotFixture(t)
	f.orders.On("SearchOrders", mock.Anything, testToken, domain.OrderConditions{
		Telephone: "+8190",
		SellerIDs: []string{"S01"},
	}).Return(nil, nil)

	f.postback(t.Context(), "action=searchTransactionByConditions&telephone=%2B8190&seller=S01")

	assert.Equal(t, []string{transactionNotFoundText}, f.texts())
}

func TestSearchTransactionByConditions_NoSellerWithLocation(t *testing.T) {
	f := newBotFixture(t)
	f.orders.On("SearchSellers", mock.Anything, testToken).Return([]domain.Seller{{ID: "WEB", Name: "オンライン"}}, nil)

	f.postback(t.Context(), "action=searchTransactionByConditions&telephone=0312345678")

	assert.Equal(t, []string{sellerNotFoundText}, f.texts())
}
