package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/mocks"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const (
	testUser  = "U1"
	testHost  = "bot.example.com"
	testToken = "token"
)

type stubConfig struct {
	apiKey string
	secret string
}

func (c stubConfig) GetChannelAccessToken() string        { return "channel-token" }
func (c stubConfig) GetChannelSecret() string             { return c.secret }
func (c stubConfig) GetLineAPIEndpoint() string           { return "https://api.line.me" }
func (c stubConfig) GetAPIEndpoint() string               { return "https://api.example.com" }
func (c stubConfig) GetConsoleEndpoint() string           { return "https://console.example.com" }
func (c stubConfig) GetAuthLoginURL() string              { return "https://auth.example.com/login" }
func (c stubConfig) GetAPIKey() string                    { return c.apiKey }
func (c stubConfig) GetHTTPAddr() string                  { return ":0" }
func (c stubConfig) GetOTPTTL() time.Duration             { return 10 * time.Minute }
func (c stubConfig) GetReturnOrderExpires() time.Duration { return 15 * time.Minute }
func (c stubConfig) GetDispatchConcurrency() int          { return 4 }

type botFixture struct {
	bot       *BotHandler
	auth      *mocks.AuthGate
	messenger *mocks.Messenger
	orders    *mocks.OrderAPI
	otp       *services.OTPService
	passes    *mocks.PassGenerator
	metrics   *services.Metrics
}

// newBotFixture builds a BotHandler whose auth gate lets testUser in
func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	f := &botFixture{
		auth:      &mocks.AuthGate{},
		messenger: &mocks.Messenger{},
		orders:    &mocks.OrderAPI{},
		otp:       services.NewOTPService(),
		passes:    &mocks.PassGenerator{},
		metrics:   services.NewMetrics(prometheus.NewRegistry()),
	}
	f.auth.On("Authenticate", mock.Anything, testUser, testHost).Return(&domain.User{
		UserID:      testUser,
		Host:        testHost,
		AccessToken: testToken,
	}, nil)

	f.bot = NewBotHandler(f.auth, f.messenger, f.orders, f.otp, f.passes, stubConfig{}, zap.NewNop(), f.metrics)
	return f
}

func (f *botFixture) postback(ctx context.Context, data string) {
	f.bot.HandleEvent(ctx, testHost, domain.NewPostbackEvent(testUser, data, time.Now().UnixMilli()))
}

func (f *botFixture) message(ctx context.Context, text string) {
	f.bot.HandleEvent(ctx, testHost, domain.NewMessageEvent(testUser, text, time.Now().UnixMilli()))
}

func (f *botFixture) texts() []string {
	return f.messenger.Texts(testUser)
}

func (f *botFixture) templates() []*messaging_api.ButtonsTemplate {
	return f.messenger.Templates(testUser)
}

func postbackActions(t *testing.T, tmpl *messaging_api.ButtonsTemplate) []*messaging_api.PostbackAction {
	t.Helper()

	var out []*messaging_api.PostbackAction
	for _, a := range tmpl.Actions {
		pa, ok := a.(*messaging_api.PostbackAction)
		if !ok {
			t.Fatalf("expected postback action, got %T", a)
		}
		out = append(out, pa)
	}
	return out
}
