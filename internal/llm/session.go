package llm

import "strings"

// Message roles understood by the model API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of conversation history.
type Message struct {
	Role string
	Text string
}

// Session is an explicit conversation value. Callers pass it into each
// request and keep the returned copy; resetting a conversation is
// simply dropping the value.
type Session struct {
	ID      string
	History []Message
}

// Append returns the session with a turn added.
func (s Session) Append(role, text string) Session {
	history := make([]Message, 0, len(s.History)+1)
	history = append(history, s.History...)
	history = append(history, Message{Role: role, Text: text})
	s.History = history
	return s
}

// prepareHistory drops empty or invalid-role turns, then keeps the
// most recent maxHistory turns. Replaying a blank turn is a request
// error on most providers.
func prepareHistory(history []Message, maxHistory int) []Message {
	valid := make([]Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Role != RoleUser && m.Role != RoleModel {
			continue
		}
		valid = append(valid, m)
	}
	if maxHistory > 0 && len(valid) > maxHistory {
		valid = valid[len(valid)-maxHistory:]
	}
	return valid
}
