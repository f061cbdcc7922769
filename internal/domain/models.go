package domain

import "time"

// User is the authenticated requester of one webhook event
type User struct {
	UserID      string
	Host        string
	AccessToken string
	Username    string
}

// Session is the credential set stored for a LINE user after sign-in
type Session struct {
	UserID      string    `json:"userId" bson:"_id"`
	AccessToken string    `json:"accessToken" bson:"accessToken"`
	Username    string    `json:"username" bson:"username"`
	ExpiresAt   time.Time `json:"expiresAt" bson:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// OTPEntry is a pending second-factor confirmation
type OTPEntry struct {
	Owner     string    `json:"owner" bson:"owner"`
	Pass      string    `json:"pass" bson:"pass"`
	Payload   Event     `json:"payload" bson:"payload"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

type TransactionStatus string

const (
	TransactionStatusInProgress TransactionStatus = "InProgress"
	TransactionStatusConfirmed  TransactionStatus = "Confirmed"
	TransactionStatusExpired    TransactionStatus = "Expired"
	TransactionStatusCanceled   TransactionStatus = "Canceled"
)

type OrderStatus string

const (
	OrderStatusPaymentDue OrderStatus = "OrderPaymentDue"
	OrderStatusProcessing OrderStatus = "OrderProcessing"
	OrderStatusDelivered  OrderStatus = "OrderDelivered"
	OrderStatusReturned   OrderStatus = "OrderReturned"
)

type TaskName string

const (
	TaskSettleSeatReservation TaskName = "settleSeatReservation"
	TaskSettleCreditCard      TaskName = "settleCreditCard"
	TaskCreateOrder           TaskName = "createOrder"
	TaskCreateOwnershipInfos  TaskName = "createOwnershipInfos"
	TaskSendEmailNotification TaskName = "sendEmailNotification"
	TaskSendOrder             TaskName = "sendOrder"
)

type TaskStatus string

const (
	TaskStatusReady    TaskStatus = "Ready"
	TaskStatusRunning  TaskStatus = "Running"
	TaskStatusExecuted TaskStatus = "Executed"
	TaskStatusAborted  TaskStatus = "Aborted"
)

type ActionStatus string

const (
	ActionStatusActive    ActionStatus = "ActiveActionStatus"
	ActionStatusCompleted ActionStatus = "CompletedActionStatus"
	ActionStatusFailed    ActionStatus = "FailedActionStatus"
	ActionStatusCanceled  ActionStatus = "CanceledActionStatus"
)

type Location struct {
	BranchCode string `json:"branchCode"`
	Name       string `json:"name"`
}

type Seller struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"`
}

type Customer struct {
	Name      string `json:"name"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
}

type AcceptedOffer struct {
	ItemName    string    `json:"itemName"`
	StartDate   time.Time `json:"startDate"`
	SeatNumber  string    `json:"seatNumber"`
	TicketToken string    `json:"ticketToken"`
}

type Order struct {
	OrderNumber        string          `json:"orderNumber"`
	ConfirmationNumber string          `json:"confirmationNumber"`
	OrderStatus        OrderStatus     `json:"orderStatus"`
	OrderDate          time.Time       `json:"orderDate"`
	Seller             Seller          `json:"seller"`
	Customer           Customer        `json:"customer"`
	Price              int             `json:"price"`
	PriceCurrency      string          `json:"priceCurrency"`
	PaymentMethods     []string        `json:"paymentMethods,omitempty"`
	AcceptedOffers     []AcceptedOffer `json:"acceptedOffers,omitempty"`
}

type PlaceOrderResult struct {
	Order Order `json:"order"`
}

type PlaceOrderTransaction struct {
	ID        string            `json:"id"`
	Status    TransactionStatus `json:"status"`
	StartDate time.Time         `json:"startDate"`
	EndDate   *time.Time        `json:"endDate,omitempty"`
	Expires   time.Time         `json:"expires"`
	Seller    Seller            `json:"seller"`
	Agent     Customer          `json:"agent"`
	Result    *PlaceOrderResult `json:"result,omitempty"`
}

type Task struct {
	ID            string     `json:"id"`
	Name          TaskName   `json:"name"`
	Status        TaskStatus `json:"status"`
	LastTriedAt   *time.Time `json:"lastTriedAt,omitempty"`
	NumberOfTried int        `json:"numberOfTried"`
}

type ActionObject struct {
	TypeOf        string `json:"typeOf"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// ActionRecord is an action the order API recorded against an order
type ActionRecord struct {
	ID           string       `json:"id"`
	TypeOf       string       `json:"typeOf"`
	ActionStatus ActionStatus `json:"actionStatus"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      *time.Time   `json:"endDate,omitempty"`
	Object       ActionObject `json:"object"`
}

type ReturnOrderTransaction struct {
	ID      string    `json:"id"`
	Expires time.Time `json:"expires"`
}

type TransactionConditions struct {
	IDs          []string `json:"ids,omitempty"`
	OrderNumbers []string `json:"resultOrderNumbers,omitempty"`
}

type OrderConditions struct {
	OrderNumbers        []string `json:"orderNumbers,omitempty"`
	ConfirmationNumbers []string `json:"confirmationNumbers,omitempty"`
	Telephone           string   `json:"telephone,omitempty"`
	SellerIDs           []string `json:"sellerIds,omitempty"`
	TheaterCodes        []string `json:"theaterCodes,omitempty"`
}

// SendMessageRequest represents request to push a text to a LINE user
type SendMessageRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SendMessageResponse represents response after sending message
type SendMessageResponse struct {
	Status string `json:"status"`
	UserID string `json:"userId"`
}

// SaveSessionRequest is handed over by the sign-in service
type SaveSessionRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
	Username    string `json:"username"`
	ExpiresIn   int    `json:"expiresIn" validate:"gt=0"` // seconds
}

// OTPStatusResponse reports pending confirmations, for debugging
type OTPStatusResponse struct {
	Status       string `json:"status"`
	ActivePasses int    `json:"active_passes"`
	TTLSeconds   int    `json:"ttl_seconds"`
}
