package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

const (
	reportRule     = "--------------------"
	reportTime     = "2006-01-02 15:04:05"
	reportNoTime   = "---------- --:--:--"
	reportShowTime = "2006-01-02 15:04"
)

var taskLabels = map[domain.TaskName]string{
	domain.TaskSettleSeatReservation: "本予約",
	domain.TaskSettleCreditCard:      "クレカ支払",
	domain.TaskCreateOrder:           "注文作成",
	domain.TaskCreateOwnershipInfos:  "所有権作成",
	domain.TaskSendEmailNotification: "メール送信",
	domain.TaskSendOrder:             "注文配送",
}

func formatTransactionReport(tx domain.PlaceOrderTransaction, order domain.Order, tasks []domain.Task, actions []domain.ActionRecord) string {
	var b strings.Builder

	section(&b, "注文取引概要")
	fmt.Fprintf(&b, "取引ステータス: %s\n", tx.Status)
	fmt.Fprintf(&b, "注文ステータス: %s\n", order.OrderStatus)
	fmt.Fprintf(&b, "確認番号: %s\n", order.ConfirmationNumber)
	fmt.Fprintf(&b, "販売者: %s\n", sellerName(order.Seller))

	section(&b, "取引状況")
	fmt.Fprintf(&b, "%s 開始\n", formatTime(tx.StartDate))
	if tx.EndDate != nil {
		fmt.Fprintf(&b, "%s 成立\n", formatTime(*tx.EndDate))
	}

	section(&b, "取引タスク")
	for _, task := range tasks {
		executedAt := reportNoTime
		if task.Status == domain.TaskStatusExecuted && task.LastTriedAt != nil {
			executedAt = formatTime(*task.LastTriedAt)
		}
		fmt.Fprintf(&b, "%s %s\n", executedAt, taskLabel(task.Name))
	}

	section(&b, "注文状況")
	sorted := append([]domain.ActionRecord(nil), actions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return actionTime(sorted[i]).Before(actionTime(sorted[j]))
	})
	for _, a := range sorted {
		fmt.Fprintf(&b, "%s\n%s %s\n", formatTime(actionTime(a)), actionArrow(a.ActionStatus), actionLabel(a))
	}

	section(&b, "購入者情報")
	fmt.Fprintf(&b, "%s\n%s\n%s\n", order.Customer.Name, order.Customer.Telephone, order.Customer.Email)

	section(&b, "座席予約")
	for _, offer := range order.AcceptedOffers {
		fmt.Fprintf(&b, "%s\n%s\n", offer.ItemName, offer.StartDate.In(jst).Format(reportShowTime))
	}

	section(&b, "決済方法")
	fmt.Fprintf(&b, "%s\n", strings.Join(order.PaymentMethods, ","))
	fmt.Fprintf(&b, "%d %s\n", order.Price, order.PriceCurrency)

	section(&b, "QR")
	for _, offer := range order.AcceptedOffers {
		fmt.Fprintf(&b, "●%s %s\n", offer.SeatNumber, offer.TicketToken)
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatUnsettledTransaction summarizes a transaction that never produced an order
func formatUnsettledTransaction(tx domain.PlaceOrderTransaction) string {
	var b strings.Builder

	section(&b, "注文取引概要")
	fmt.Fprintf(&b, "取引ID: %s\n", tx.ID)
	fmt.Fprintf(&b, "取引ステータス: %s\n", tx.Status)
	fmt.Fprintf(&b, "販売者: %s\n", sellerName(tx.Seller))

	section(&b, "取引状況")
	fmt.Fprintf(&b, "%s 開始\n", formatTime(tx.StartDate))
	switch {
	case tx.Status == domain.TransactionStatusExpired:
		fmt.Fprintf(&b, "%s 期限切れ\n", formatTime(tx.Expires))
	case tx.EndDate != nil:
		fmt.Fprintf(&b, "%s 終了\n", formatTime(*tx.EndDate))
	}

	section(&b, "購入者情報")
	fmt.Fprintf(&b, "%s\n%s\n%s\n", tx.Agent.Name, tx.Agent.Telephone, tx.Agent.Email)

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n%s\n", reportRule, title, reportRule)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return reportNoTime
	}
	return t.In(jst).Format(reportTime)
}

func sellerName(s domain.Seller) string {
	if s.Location != nil && s.Location.Name != "" {
		return s.Name + " " + s.Location.Name
	}
	return s.Name
}

func taskLabel(name domain.TaskName) string {
	if l, ok := taskLabels[name]; ok {
		return l
	}
	return "???"
}

func actionTime(a domain.ActionRecord) time.Time {
	if a.EndDate != nil {
		return *a.EndDate
	}
	return a.StartDate
}

func actionArrow(status domain.ActionStatus) string {
	switch status {
	case domain.ActionStatusCanceled:
		return "←"
	case domain.ActionStatusCompleted:
		return "↓"
	case domain.ActionStatusFailed:
		return "×"
	default:
		return "→"
	}
}

func actionLabel(a domain.ActionRecord) string {
	switch a.TypeOf {
	case "ReturnAction":
		if a.Object.TypeOf == "Order" {
			return "返品"
		}
		return "返金"
	case "OrderAction":
		return "注文受付"
	case "SendAction":
		if a.Object.TypeOf == "Order" {
			return "配送"
		}
		return a.TypeOf + " " + a.Object.TypeOf
	case "PayAction":
		return fmt.Sprintf("支払(%s)", a.Object.PaymentMethod)
	case "UseAction":
		return a.Object.TypeOf + "使用"
	default:
		return "???"
	}
}
