package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Messenger pushes messages to a LINE user
type Messenger interface {
	Push(ctx context.Context, to string, messages ...messaging_api.MessageInterface) error
	PushText(ctx context.Context, to, text string) error
}

// OTPStore keeps pending second-factor confirmations, namespaced by owner
type OTPStore interface {
	Save(ctx context.Context, owner, pass string, payload Event, ttl time.Duration) error
	Verify(ctx context.Context, owner, pass string) (*Event, error)
	// Consume removes a live entry and returns its payload. Only one caller
	// gets the payload; every other caller sees nil.
	Consume(ctx context.Context, owner, pass string) (*Event, error)
	Cleanup(ctx context.Context) (int, error)
	Active(ctx context.Context) (int, error)
}

// PassGenerator issues one-time passes
type PassGenerator interface {
	Generate() (string, error)
}

// SessionStore keeps the credentials of signed-in LINE users
type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, userID string) error
}

// AuthGate decides whether a LINE user may use the assistant
type AuthGate interface {
	Authenticate(ctx context.Context, userID, host string) (*User, error)
	PromptLogin(ctx context.Context, userID, host string) error
}

// OrderAPI is the external order/transaction service
type OrderAPI interface {
	SearchPlaceOrderTransactions(ctx context.Context, token string, cond TransactionConditions) ([]PlaceOrderTransaction, error)
	SearchOrders(ctx context.Context, token string, cond OrderConditions) ([]Order, error)
	SearchSellers(ctx context.Context, token string) ([]Seller, error)
	SearchTasks(ctx context.Context, token string, name TaskName, transactionID string) ([]Task, error)
	ExecuteTask(ctx context.Context, token, taskID string) error
	SearchActions(ctx context.Context, token, orderNumber string) ([]ActionRecord, error)
	StartReturnOrder(ctx context.Context, token, orderNumber string, expires time.Time) (*ReturnOrderTransaction, error)
	ConfirmReturnOrder(ctx context.Context, token, transactionID string) error
	ExportTransactions(ctx context.Context, token string, from, through time.Time) (string, error)
}

// DatabaseService handles database operations
type DatabaseService interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// ConfigService handles application configuration
type ConfigService interface {
	GetChannelAccessToken() string
	GetChannelSecret() string
	GetLineAPIEndpoint() string
	GetAPIEndpoint() string
	GetConsoleEndpoint() string
	GetAuthLoginURL() string
	GetAPIKey() string
	GetHTTPAddr() string
	GetOTPTTL() time.Duration
	GetReturnOrderExpires() time.Duration
	GetDispatchConcurrency() int
}

// Persistence backends selectable with STORE_DRIVER
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)
