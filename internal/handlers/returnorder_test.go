package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func expectStartReturn(f *botFixture, orderNumber, returnTxID string) {
	f.orders.On("StartReturnOrder", mock.Anything, testToken, orderNumber, mock.AnythingOfType("time.Time")).
		Return(&domain.ReturnOrderTransaction{ID: returnTxID, Expires: time.Now().Add(15 * time.Minute)}, nil)
}

func TestStartReturnOrder_IssuesPass(t *testing.T) {
	f := newBotFixture(t)
	f.passes.On("Generate").Return("123456", nil)
	expectStartReturn(f, "ORD-1", "RTX-1")

	f.postback(t.Context(), "action=startReturnOrder&orderNumber=ORD-1")

	assert.Equal(t, []string{returnStartingText, returnStartedText, passInstructionText, "123456"}, f.texts())
	f.orders.AssertNumberOfCalls(t, "StartReturnOrder", 1)

	active, err := f.otp.Active(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	stored, err := f.otp.Verify(t.Context(), testUser, "123456")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "action=confirmReturnOrder&transaction=RTX-1&pass=123456", stored.Postback.Data)
}

func TestStartReturnOrder_RegeneratesOnConflict(t *testing.T) {
	f := newBotFixture(t)
	require.NoError(t, f.otp.Save(t.Context(), testUser, "111111", domain.NewPostbackEvent(testUser, "action=logout", 1), time.Minute))
	f.passes.On("Generate").Return("111111", nil).Once()
	f.passes.On("Generate").Return("222222", nil).Once()
	expectStartReturn(f, "ORD-1", "RTX-1")

	f.postback(t.Context(), "action=startReturnOrder&orderNumber=ORD-1")

	texts := f.texts()
	require.NotEmpty(t, texts)
	assert.Equal(t, "222222", texts[len(texts)-1])
	f.orders.AssertNumberOfCalls(t, "StartReturnOrder", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OTPOperations.WithLabelValues("save", "conflict")))
}

func TestStartReturnOrder_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newBotFixture(t)
	require.NoError(t, f.otp.Save(t.Context(), testUser, "111111", domain.NewPostbackEvent(testUser, "action=logout", 1), time.Minute))
	f.passes.On("Generate").Return("111111", nil)
	expectStartReturn(f, "ORD-1", "RTX-1")

	f.postback(t.Context(), "action=startReturnOrder&orderNumber=ORD-1")

	texts := f.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, returnStartingText, texts[0])
	assert.Contains(t, texts[1], "返品取引開始できませんでした: no free pass after 3 attempts")
	f.passes.AssertNumberOfCalls(t, "Generate", maxPassAttempts)
}

func TestStartReturnOrder_LegacyTransactionParam(t *testing.T) {
	f := newBotFixture(t)
	f.orders.On("SearchPlaceOrderTransactions", mock.Anything, testToken, domain.TransactionConditions{IDs: []string{"TX-1"}}).
		Return([]domain.PlaceOrderTransaction{{ID: "TX-1", Result: &domain.PlaceOrderResult{Order: domain.Order{OrderNumber: "ORD-1"}}}}, nil)
	f.passes.On("Generate").Return("654321", nil)
	expectStartReturn(f, "ORD-1", "RTX-2")

	f.postback(t.Context(), "action=startReturnOrder&transaction=TX-1")

	assert.Equal(t, []string{returnStartingText, returnStartedText, passInstructionText, "654321"}, f.texts())
}

func TestStartReturnOrder_APIFailure(t *testing.T) {
	f := newBotFixture(t)
	f.orders.On("StartReturnOrder", mock.Anything, testToken, "ORD-1", mock.AnythingOfType("time.Time")).
		Return(nil, errors.New("order not returnable"))

	f.postback(t.Context(), "action=startReturnOrder&orderNumber=ORD-1")

	assert.Equal(t, []string{returnStartingText, "返品取引開始できませんでした: order not returnable"}, f.texts())
	f.passes.AssertNotCalled(t, "Generate")
	active, err := f.otp.Active(t.Context())
	require.NoError(t, err)
	assert.Zero(t, active)
}

func TestConfirmReturnOrder_MissingPass(t *testing.T) {
	f := newBotFixture(t)

	f.postback(t.Context(), "action=confirmReturnOrder&transaction=RTX-9&pass=999999")

	assert.Equal(t, []string{returnConfirmingText, passExpiredText}, f.texts())
	f.orders.AssertNotCalled(t, "ConfirmReturnOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmReturnOrder_UsesStoredTransaction(t *testing.T) {
	f := newBotFixture(t)
	payload := domain.NewPostbackEvent(testUser, confirmReturnOrderData("RTX-1", "123456"), 1)
	require.NoError(t, f.otp.Save(t.Context(), testUser, "123456", payload, time.Minute))
	f.orders.On("ConfirmReturnOrder", mock.Anything, testToken, "RTX-1").Return(nil)

	f.postback(t.Context(), "action=confirmReturnOrder&transaction=RTX-EVIL&pass=123456")

	assert.Equal(t, []string{returnConfirmingText, returnConfirmedText}, f.texts())
	f.orders.AssertCalled(t, "ConfirmReturnOrder", mock.Anything, testToken, "RTX-1")
	f.orders.AssertNumberOfCalls(t, "ConfirmReturnOrder", 1)
}

// slowOTPStore answers like a networked store, leaving time between the
// lookups of events handled in the same batch.
type slowOTPStore struct {
	domain.OTPStore
	delay time.Duration
}

func (s slowOTPStore) Verify(ctx context.Context, owner, pass string) (*domain.Event, error) {
	time.Sleep(s.delay)
	return s.OTPStore.Verify(ctx, owner, pass)
}

func (s slowOTPStore) Consume(ctx context.Context, owner, pass string) (*domain.Event, error) {
	time.Sleep(s.delay)
	return s.OTPStore.Consume(ctx, owner, pass)
}

func TestConfirmReturnOrder_PassConfirmsOnceWithinBatch(t *testing.T) {
	f := newBotFixture(t)
	f.bot = NewBotHandler(f.auth, f.messenger, f.orders, slowOTPStore{OTPStore: f.otp, delay: 5 * time.Millisecond},
		f.passes, stubConfig{}, zap.NewNop(), f.metrics)

	payload := domain.NewPostbackEvent(testUser, confirmReturnOrderData("RTX-1", "123456"), 1)
	require.NoError(t, f.otp.Save(t.Context(), testUser, "123456", payload, time.Minute))
	f.orders.On("ConfirmReturnOrder", mock.Anything, testToken, "RTX-1").Return(nil)

	data := "action=confirmReturnOrder&transaction=RTX-1&pass=123456"
	f.bot.HandleEvents(t.Context(), testHost, []domain.Event{
		domain.NewPostbackEvent(testUser, data, 1),
		domain.NewPostbackEvent(testUser, data, 2),
		domain.NewMessageEvent(testUser, "123456", 3),
	})

	f.orders.AssertNumberOfCalls(t, "ConfirmReturnOrder", 1)

	confirmed := 0
	for _, text := range f.texts() {
		if text == returnConfirmedText {
			confirmed++
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Contains(t, f.texts(), passExpiredText)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OTPOperations.WithLabelValues("verify", services.ResultOK)))
}

func TestConfirmReturnOrder_PassOfAnotherUser(t *testing.T) {
	f := newBotFixture(t)
	payload := domain.NewPostbackEvent("U9", confirmReturnOrderData("RTX-1", "123456"), 1)
	require.NoError(t, f.otp.Save(t.Context(), "U9", "123456", payload, time.Minute))

	f.postback(t.Context(), "action=confirmReturnOrder&transaction=RTX-1&pass=123456")

	assert.Equal(t, []string{returnConfirmingText, passExpiredText}, f.texts())
	f.orders.AssertNotCalled(t, "ConfirmReturnOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestReturnOrder_TypedPassConfirms(t *testing.T) {
	f := newBotFixture(t)
	f.passes.On("Generate").Return("123456", nil)
	expectStartReturn(f, "ORD-1", "RTX-1")
	f.orders.On("ConfirmReturnOrder", mock.Anything, testToken, "RTX-1").Return(nil)

	f.postback(t.Context(), "action=startReturnOrder&orderNumber=ORD-1")
	f.message(t.Context(), " 123456 ")

	assert.Equal(t, []string{
		returnStartingText, returnStartedText, passInstructionText, "123456",
		returnConfirmingText, returnConfirmedText,
	}, f.texts())
	f.orders.AssertNumberOfCalls(t, "ConfirmReturnOrder", 1)

	active, err := f.otp.Active(t.Context())
	require.NoError(t, err)
	assert.Zero(t, active)

	// the pass is single use; typing it again is an ordinary search key
	f.message(t.Context(), "123456")
	f.orders.AssertNumberOfCalls(t, "ConfirmReturnOrder", 1)
	assert.Len(t, f.templates(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OTPOperations.WithLabelValues("replay", services.ResultOK)))
}
