// Package events is the published contract of the chat module.
package events

import (
	"time"

	"arcadia/pkg/domain"
)

const TypeMessageSent = "chat.message_sent"

// MessageSentEvent never carries the message content.
type MessageSentEvent struct {
	MessageID  domain.MessageID `json:"messageId"`
	SenderID   domain.PlayerID  `json:"senderId"`
	ReceiverID domain.PlayerID  `json:"receiverId"`
	SentAt     time.Time        `json:"sentAt"`
}

func (MessageSentEvent) EventType() string     { return TypeMessageSent }
func (e MessageSentEvent) AggregateID() string { return e.ReceiverID.String() }
