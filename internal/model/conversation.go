// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Conversation is the ordered transcript of a chat session. Messages are
// appended in arrival order; the only removal operation is Reset.
//
// Conversation is not safe for concurrent use; the session serializes
// access to it.
type Conversation struct {
	messages []Message
}

// NewConversation creates an empty transcript.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the transcript.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
}

// AppendUser appends a user message and returns it.
func (c *Conversation) AppendUser(content string) Message {
	msg := NewMessage(RoleUser, content)
	c.Append(msg)
	return msg
}

// AppendAssistant appends an assistant message and returns it.
func (c *Conversation) AppendAssistant(content string) Message {
	msg := NewMessage(RoleAssistant, content)
	c.Append(msg)
	return msg
}

// AppendSystem appends a system message and returns it.
func (c *Conversation) AppendSystem(content string) Message {
	msg := NewMessage(RoleSystem, content)
	c.Append(msg)
	return msg
}

// Reset clears the transcript. Resetting an empty transcript is a no-op.
func (c *Conversation) Reset() {
	c.messages = nil
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the full transcript, oldest first.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message and whether one exists.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Tail returns a copy of the most recent n messages in transcript order.
// Asking for more than exist returns the whole transcript; n <= 0 returns
// an empty slice. The transcript itself is never mutated.
func (c *Conversation) Tail(n int) []Message {
	if n <= 0 {
		return []Message{}
	}
	if n > len(c.messages) {
		n = len(c.messages)
	}
	out := make([]Message, n)
	copy(out, c.messages[len(c.messages)-n:])
	return out
}
