package mocks

import (
	"context"
	"sync"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Push is one recorded Messenger.Push call
type Push struct {
	To       string
	Messages []messaging_api.MessageInterface
}

// Messenger records pushes instead of calling the platform
type Messenger struct {
	mu     sync.Mutex
	pushes []Push
	Err    error
}

func (m *Messenger) Push(ctx context.Context, to string, messages ...messaging_api.MessageInterface) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.pushes = append(m.pushes, Push{To: to, Messages: messages})
	return nil
}

func (m *Messenger) PushText(ctx context.Context, to, text string) error {
	return m.Push(ctx, to, services.TextMessages(text)...)
}

func (m *Messenger) Pushes() []Push {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Push(nil), m.pushes...)
}

// Messages flattens every pushed message to to, in send order
func (m *Messenger) Messages(to string) []messaging_api.MessageInterface {
	var out []messaging_api.MessageInterface
	for _, p := range m.Pushes() {
		if p.To == to {
			out = append(out, p.Messages...)
		}
	}
	return out
}

// Texts returns the text messages pushed to to, in send order
func (m *Messenger) Texts(to string) []string {
	var out []string
	for _, msg := range m.Messages(to) {
		if tm, ok := msg.(*messaging_api.TextMessage); ok {
			out = append(out, tm.Text)
		}
	}
	return out
}

// Templates returns the buttons templates pushed to to, in send order
func (m *Messenger) Templates(to string) []*messaging_api.ButtonsTemplate {
	var out []*messaging_api.ButtonsTemplate
	for _, msg := range m.Messages(to) {
		if tm, ok := msg.(*messaging_api.TemplateMessage); ok {
			if bt, ok := tm.Template.(*messaging_api.ButtonsTemplate); ok {
				out = append(out, bt)
			}
		}
	}
	return out
}
