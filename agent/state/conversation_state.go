package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/chative-customer-service/agent/conversation"
)

// ConversationState is everything persisted for one chat thread.
type ConversationState struct {
	ThreadID   string                 `json:"thread_id"`
	CustomerID string                 `json:"customer_id"`
	Messages   []conversation.Message `json:"messages"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Version    int64                  `json:"version"`
}

var (
	ErrNilState        = errors.New("conversation state is nil")
	ErrInvalidThread   = errors.New("thread id is empty")
	ErrDuplicateID     = errors.New("duplicate message id")
	ErrMultipleSummary = errors.New("more than one summary message")
)

// NewConversationState seeds a thread with the customer marker.
func NewConversationState(threadID, customerID string, now time.Time) *ConversationState {
	st := &ConversationState{
		ThreadID:   threadID,
		CustomerID: customerID,
		UpdatedAt:  now.UTC(),
	}
	if strings.TrimSpace(customerID) != "" {
		st.Messages = append(st.Messages, conversation.CustomerMarker(customerID))
	}
	return st
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *ConversationState) Append(msgs ...conversation.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Summary returns the summary message, if any.
func (s *ConversationState) Summary() (conversation.Message, bool) {
	for _, m := range s.Messages {
		if m.ID == conversation.SummaryID {
			return m, true
		}
	}
	return conversation.Message{}, false
}

func (s *ConversationState) Validate() error {
	if s == nil {
		return ErrNilState
	}
	if strings.TrimSpace(s.ThreadID) == "" {
		return ErrInvalidThread
	}
	seen := make(map[string]struct{}, len(s.Messages))
	for i, m := range s.Messages {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("message %d has no id", i)
		}
		if _, dup := seen[m.ID]; dup {
			if m.ID == conversation.SummaryID {
				return ErrMultipleSummary
			}
			return fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}
