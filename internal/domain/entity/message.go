package entity

import "time"

// Role identifies the sender of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one stored exchange unit in a session.
type Message struct {
	ID               uint      `json:"-"`
	SessionID        string    `json:"-"`
	Sender           Role      `json:"sender"`
	Content          string    `json:"content"`
	FormattedContent string    `json:"formatted_content,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// TurnRole tags a conversational turn handed to the model provider.
// Stored messages map onto it explicitly: RoleUser becomes TurnUser,
// anything else becomes TurnModel.
type TurnRole string

const (
	TurnUser  TurnRole = "user"
	TurnModel TurnRole = "model"
)

// Turn is one unit of the in-memory context replayed to the provider.
type Turn struct {
	Role TurnRole
	Text string
}

// TurnFromMessage translates a stored message into a provider turn.
func TurnFromMessage(m *Message) Turn {
	role := TurnModel
	if m.Sender == RoleUser {
		role = TurnUser
	}
	return Turn{Role: role, Text: m.Content}
}
