package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

const MaxContentLength = 2000

type Status string

const (
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
)

// Message is one direct message between two players.
type Message struct {
	ID         domain.MessageID
	SenderID   domain.PlayerID
	ReceiverID domain.PlayerID
	Content    string
	Status     Status
	SentAt     time.Time
	ReadAt     *time.Time
}

func NewMessage(id domain.MessageID, sender, receiver domain.PlayerID, content string, now time.Time) (*Message, error) {
	if sender == receiver {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "cannot send message to yourself")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "message content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "message content is too long")
	}
	return &Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Status:     StatusSent,
		SentAt:     now,
	}, nil
}

// MarkRead moves a message to READ for its receiver. It reports whether the
// message changed.
func (m *Message) MarkRead(reader domain.PlayerID, now time.Time) bool {
	if m.ReceiverID != reader || m.Status == StatusRead {
		return false
	}
	m.Status = StatusRead
	m.ReadAt = &now
	return true
}

// Between reports whether the message was exchanged by a and b in either
// direction.
func (m *Message) Between(a, b domain.PlayerID) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Counterpart returns the other participant from user's point of view.
func (m *Message) Counterpart(user domain.PlayerID) domain.PlayerID {
	if m.SenderID == user {
		return m.ReceiverID
	}
	return m.SenderID
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

type Conversation struct {
	Messages []*Message
	Total    int
	Page     Page
}
