package domain

import "net/url"

// Action names a postback handler. The set is closed; the string value is
// what travels inside postback data.
type Action string

const (
	ActionSearchTransactionByID         Action = "searchTransactionById"
	ActionSearchTransactionByReserveNum Action = "searchTransactionByReserveNum"
	ActionSearchTransactionByTel        Action = "searchTransactionByTel"
	ActionSearchTransactionByConditions Action = "searchTransactionByConditions"
	ActionPushNotification              Action = "pushNotification"
	ActionSettleSeatReservation         Action = "settleSeatReservation"
	ActionCreateOwnershipInfos          Action = "createOwnershipInfos"
	ActionStartReturnOrder              Action = "startReturnOrder"
	ActionConfirmReturnOrder            Action = "confirmReturnOrder"
	ActionSearchTransactionsByDate      Action = "searchTransactionsByDate"
	ActionLogout                        Action = "logout"
	ActionAskFromWhenAndToWhen          Action = "askFromWhenAndToWhen"
)

var actionLabels = map[Action]string{
	ActionSearchTransactionByID:         "取引検索",
	ActionSearchTransactionByReserveNum: "予約番号検索",
	ActionSearchTransactionByTel:        "電話番号検索",
	ActionSearchTransactionByConditions: "取引検索",
	ActionPushNotification:              "送信",
	ActionSettleSeatReservation:         "本予約",
	ActionCreateOwnershipInfos:          "所有権作成",
	ActionStartReturnOrder:              "返品取引開始",
	ActionConfirmReturnOrder:            "返品取引確定",
	ActionSearchTransactionsByDate:      "取引CSVダウンロード",
	ActionLogout:                        "ログアウト",
	ActionAskFromWhenAndToWhen:          "期間指定",
}

// AllActions lists every action in declaration order.
func AllActions() []Action {
	return []Action{
		ActionSearchTransactionByID,
		ActionSearchTransactionByReserveNum,
		ActionSearchTransactionByTel,
		ActionSearchTransactionByConditions,
		ActionPushNotification,
		ActionSettleSeatReservation,
		ActionCreateOwnershipInfos,
		ActionStartReturnOrder,
		ActionConfirmReturnOrder,
		ActionSearchTransactionsByDate,
		ActionLogout,
		ActionAskFromWhenAndToWhen,
	}
}

// ParseAction maps a postback action name onto the enum.
func ParseAction(name string) (Action, bool) {
	a := Action(name)
	_, ok := actionLabels[a]
	return a, ok
}

// Label is the human readable name used in user facing failure messages.
func (a Action) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

func (a Action) String() string {
	return string(a)
}

// Params holds the non-action keys of a postback.
type Params url.Values

func (p Params) Get(key string) string {
	return url.Values(p).Get(key)
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}
