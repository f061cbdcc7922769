package domain

import "fmt"

// EventKind tells which half of an Event is populated.
type EventKind string

const (
	EventKindMessage  EventKind = "message"
	EventKindPostback EventKind = "postback"
)

// MessageContent is the text a user typed.
type MessageContent struct {
	Text string `json:"text" bson:"text"`
}

// PostbackContent carries the query-string encoded data of a tapped button.
type PostbackContent struct {
	Data string `json:"data" bson:"data"`
}

// Event is one inbound webhook notification. Exactly one of Message and
// Postback is set, matching Kind.
type Event struct {
	Kind      EventKind        `json:"type" bson:"type"`
	UserID    string           `json:"userId" bson:"userId"`
	Timestamp int64            `json:"timestamp" bson:"timestamp"`
	Message   *MessageContent  `json:"message,omitempty" bson:"message,omitempty"`
	Postback  *PostbackContent `json:"postback,omitempty" bson:"postback,omitempty"`
}

func NewMessageEvent(userID, text string, timestamp int64) Event {
	return Event{
		Kind:      EventKindMessage,
		UserID:    userID,
		Timestamp: timestamp,
		Message:   &MessageContent{Text: text},
	}
}

func NewPostbackEvent(userID, data string, timestamp int64) Event {
	return Event{
		Kind:      EventKindPostback,
		UserID:    userID,
		Timestamp: timestamp,
		Postback:  &PostbackContent{Data: data},
	}
}

// Validate checks the union invariant. Events decoded from storage go
// through it before being replayed.
func (e Event) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("event without source user")
	}
	switch e.Kind {
	case EventKindMessage:
		if e.Message == nil || e.Postback != nil {
			return fmt.Errorf("message event must carry only a message")
		}
	case EventKindPostback:
		if e.Postback == nil || e.Message != nil {
			return fmt.Errorf("postback event must carry only a postback")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Kind)
	}
	return nil
}
