package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"github.com/google/uuid"
)

const (
	commandInquiry = "取引照会"
	commandCSV     = "csv"
	commandLogout  = "logout"
)

// <digits> or <theater>-<digits>
var searchKeyPattern = regexp.MustCompile(`^\d+(-\d+)?$`)

const howToUseText = `Information
----------------
メニューから操作もできるようになりました。
期限切れステータスの取引詳細を照会することができるようになりました。`

const inquiryKeyText = `次のいずれかを入力してください。
1. 確認番号
例:2425

2. 電話番号

3. 取引ID
例:5a7b2ed6c993250364388acd`

func (h *BotHandler) pushHowToUse(ctx context.Context, user *domain.User) error {
	menu, err := services.ButtonTemplate("何をしましょうか？",
		services.MessageButton(commandInquiry, commandInquiry),
		services.MessageButton("取引CSVダウンロード", commandCSV),
		services.URIButton("顔を登録する", "line://nv/camera/"),
		services.MessageButton("ログアウト", commandLogout),
	)
	if err != nil {
		return err
	}

	messages := append(services.TextMessages(howToUseText), menu)
	return h.messenger.Push(ctx, user.UserID, messages...)
}

func (h *BotHandler) askTransactionInquiryKey(ctx context.Context, user *domain.User) error {
	return h.pushText(ctx, user.UserID, inquiryKeyText)
}

// selectSearchTransactionsKey offers the three ways to read a typed key. With
// a "<theater>-<key>" message only the part after the dash is the key.
func (h *BotHandler) selectSearchTransactionsKey(ctx context.Context, user *domain.User, message string) error {
	key := message
	if _, after, found := strings.Cut(message, "-"); found {
		key = after
	}

	tmpl, err := services.ButtonTemplate("どちらで検索しますか？",
		services.PostbackButton("取引ID", services.EncodePostback(domain.ActionSearchTransactionByID,
			url.Values{"transaction": {message}})),
		services.PostbackButton("確認番号", services.EncodePostback(domain.ActionSearchTransactionByConditions,
			url.Values{"confirmationNumber": {key}})),
		services.PostbackButton("電話番号", services.EncodePostback(domain.ActionSearchTransactionByConditions,
			url.Values{"telephone": {key}})),
	)
	if err != nil {
		return err
	}
	return h.messenger.Push(ctx, user.UserID, tmpl)
}

// logout offers a button to the logout endpoint. The link carries a one-time
// state kept in the pass store, so only this user can end the session.
func (h *BotHandler) logout(ctx context.Context, user *domain.User) error {
	state := uuid.NewString()
	payload := domain.NewPostbackEvent(user.UserID, "action="+domain.ActionLogout.String(), h.now().UnixMilli())
	if err := h.otp.Save(ctx, user.UserID, state, payload, h.cfg.GetOTPTTL()); err != nil {
		return err
	}

	tmpl, err := services.ButtonTemplate("本当にログアウトしますか？",
		services.URIButton("Log out", logoutURL(user, state)),
	)
	if err != nil {
		return err
	}
	return h.messenger.Push(ctx, user.UserID, tmpl)
}

func (h *BotHandler) logoutAction(ctx context.Context, user *domain.User, _ domain.Params) error {
	return h.logout(ctx, user)
}

func logoutURL(user *domain.User, state string) string {
	return fmt.Sprintf("https://%s/logout?userId=%s&state=%s", user.Host, url.QueryEscape(user.UserID), url.QueryEscape(state))
}
