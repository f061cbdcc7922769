package services

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LINE platform limits
const (
	MaxButtonActions = 4
	MaxPushMessages  = 5
	MaxTextRunes     = 5000

	maxButtonLabelRunes = 20
	maxButtonTextRunes  = 160
	maxAltTextRunes     = 400
)

type ButtonKind string

const (
	ButtonPostback ButtonKind = "postback"
	ButtonMessage  ButtonKind = "message"
	ButtonURI      ButtonKind = "uri"
)

// Button is one choice of a buttons template. Payload is the postback data,
// the message text or the URI depending on Kind.
type Button struct {
	Label       string
	Kind        ButtonKind
	Payload     string
	DisplayText string
}

var (
	ErrNoActions      = errors.New("button template needs at least one action")
	ErrTooManyActions = fmt.Errorf("button template allows at most %d actions", MaxButtonActions)
)

func PostbackButton(label, data string) Button {
	return Button{Label: label, Kind: ButtonPostback, Payload: data}
}

func MessageButton(label, text string) Button {
	return Button{Label: label, Kind: ButtonMessage, Payload: text}
}

func URIButton(label, uri string) Button {
	return Button{Label: label, Kind: ButtonURI, Payload: uri}
}

// TextMessages renders text as one or more text messages of at most
// MaxTextRunes runes each.
func TextMessages(text string) []messaging_api.MessageInterface {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	messages := make([]messaging_api.MessageInterface, 0, (len(runes)+MaxTextRunes-1)/MaxTextRunes)
	for start := 0; start < len(runes); start += MaxTextRunes {
		end := min(start+MaxTextRunes, len(runes))
		messages = append(messages, &messaging_api.TextMessage{Text: string(runes[start:end])})
	}
	return messages
}

// ButtonTemplate renders a buttons template with 1..MaxButtonActions actions.
func ButtonTemplate(title string, buttons ...Button) (*messaging_api.TemplateMessage, error) {
	if len(buttons) == 0 {
		return nil, ErrNoActions
	}
	if len(buttons) > MaxButtonActions {
		return nil, ErrTooManyActions
	}

	actions := make([]messaging_api.ActionInterface, 0, len(buttons))
	for _, b := range buttons {
		a, err := b.action()
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return &messaging_api.TemplateMessage{
		AltText: truncateRunes(title, maxAltTextRunes),
		Template: &messaging_api.ButtonsTemplate{
			Text:    truncateRunes(title, maxButtonTextRunes),
			Actions: actions,
		},
	}, nil
}

// PaginateButtons splits buttons over as many templates as needed, keeping
// their order. Each template carries the same title.
func PaginateButtons(title string, buttons []Button) ([]messaging_api.MessageInterface, error) {
	if len(buttons) == 0 {
		return nil, ErrNoActions
	}

	pages := make([]messaging_api.MessageInterface, 0, (len(buttons)+MaxButtonActions-1)/MaxButtonActions)
	for start := 0; start < len(buttons); start += MaxButtonActions {
		end := min(start+MaxButtonActions, len(buttons))
		tmpl, err := ButtonTemplate(title, buttons[start:end]...)
		if err != nil {
			return nil, err
		}
		pages = append(pages, tmpl)
	}
	return pages, nil
}

// PushRequests groups messages into push calls of at most MaxPushMessages.
func PushRequests(to string, messages []messaging_api.MessageInterface) []*messaging_api.PushMessageRequest {
	requests := make([]*messaging_api.PushMessageRequest, 0, (len(messages)+MaxPushMessages-1)/MaxPushMessages)
	for start := 0; start < len(messages); start += MaxPushMessages {
		end := min(start+MaxPushMessages, len(messages))
		requests = append(requests, &messaging_api.PushMessageRequest{
			To:       to,
			Messages: messages[start:end],
		})
	}
	return requests
}

// EncodePostback builds "action=<name>&k=v..." postback data.
func EncodePostback(action domain.Action, params url.Values) string {
	rest := url.Values{}
	for k, vs := range params {
		if k == "action" {
			continue
		}
		rest[k] = vs
	}

	data := "action=" + url.QueryEscape(action.String())
	if enc := rest.Encode(); enc != "" {
		data += "&" + enc
	}
	return data
}

func (b Button) action() (messaging_api.ActionInterface, error) {
	label := truncateRunes(b.Label, maxButtonLabelRunes)

	switch b.Kind {
	case ButtonPostback:
		return &messaging_api.PostbackAction{Label: label, Data: b.Payload, DisplayText: b.DisplayText}, nil
	case ButtonMessage:
		return &messaging_api.MessageAction{Label: label, Text: b.Payload}, nil
	case ButtonURI:
		return &messaging_api.UriAction{Label: label, Uri: b.Payload}, nil
	default:
		return nil, fmt.Errorf("unknown button kind %q", b.Kind)
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
